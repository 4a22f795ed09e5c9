package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"olo_mining/internal/domain"
	"olo_mining/internal/kv"
	"olo_mining/internal/metrics"
	"olo_mining/internal/repository"

	"github.com/shopspring/decimal"
)

// AdminService backs the PIN-gated console. Callers check RequireAdmin before
// anything other than Login, Logout and LoggedIn.
type AdminService struct {
	installs *repository.Installs
	audit    *AuditService
	pin      string
}

func NewAdminService(installs *repository.Installs, audit *AuditService, pin string) *AdminService {
	return &AdminService{installs: installs, audit: audit, pin: pin}
}

// Stats is the console header.
type Stats struct {
	TotalUsers         int `json:"total_users"`
	PendingWithdrawals int `json:"pending_withdrawals"`
}

type TaskInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Reward      *decimal.Decimal `json:"reward"`
	Link        string           `json:"link"`
}

// ConfigPatch carries the fields to change; nil fields keep their value.
type ConfigPatch struct {
	MiningRate     *decimal.Decimal `json:"miningRate"`
	MiningDuration *int64           `json:"miningDuration"`
	ReferralReward *decimal.Decimal `json:"referralReward"`
	TaskReward     *decimal.Decimal `json:"taskReward"`
	MinWithdrawal  *decimal.Decimal `json:"minWithdrawal"`
	ConversionRate *decimal.Decimal `json:"conversionRate"`
	MonetagID      *string          `json:"monetagId"`
	AdsgramID      *string          `json:"adsgramId"`
}

func (s *AdminService) action(ctx context.Context, installID, action string, details map[string]any) {
	metrics.AdminActions.WithLabelValues(action).Inc()
	s.audit.Log(ctx, installID, action, domain.AuditCategoryAdmin, details)
}

// Login compares the PIN and persists the session flag. There is no lockout.
func (s *AdminService) Login(ctx context.Context, installID, pin string) error {
	unlock := s.installs.Lock(installID)
	defer unlock()

	if subtle.ConstantTimeCompare([]byte(pin), []byte(s.pin)) != 1 {
		s.action(ctx, installID, domain.AuditActionAdminLoginFailed, nil)
		return ErrInvalidPIN
	}
	if err := s.installs.Open(installID).SetAdmin(ctx, true); err != nil {
		return err
	}
	s.action(ctx, installID, domain.AuditActionAdminLogin, nil)
	return nil
}

func (s *AdminService) Logout(ctx context.Context, installID string) error {
	unlock := s.installs.Lock(installID)
	defer unlock()

	if err := s.installs.Open(installID).SetAdmin(ctx, false); err != nil {
		return err
	}
	s.action(ctx, installID, domain.AuditActionAdminLogout, nil)
	return nil
}

func (s *AdminService) LoggedIn(ctx context.Context, installID string) (bool, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	return s.installs.Open(installID).IsAdmin(ctx)
}

func (s *AdminService) RequireAdmin(ctx context.Context, installID string) error {
	ok, err := s.LoggedIn(ctx, installID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAdminRequired
	}
	return nil
}

func (s *AdminService) Stats(ctx context.Context, installID string) (*Stats, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	users, err := r.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	list, err := r.GetWithdrawals(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalUsers:         len(users),
		PendingWithdrawals: repository.CountPending(list),
	}, nil
}

func (s *AdminService) Users(ctx context.Context, installID string) ([]domain.User, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	return s.installs.Open(installID).GetAllUsers(ctx)
}

// updateUser applies fn to one row of the all-users list and saves the list.
// fn sees the config read under the same lock.
func (s *AdminService) updateUser(ctx context.Context, installID, userID string, fn func(u *domain.User, cfg domain.AppConfig)) (*domain.User, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID != userID {
			continue
		}
		fn(&users[i], cfg)
		if err := r.SaveAllUsers(ctx, users); err != nil {
			return nil, err
		}
		u := users[i]
		return &u, nil
	}
	return nil, ErrUserNotFound
}

// ToggleBan flips the user's ban flag.
func (s *AdminService) ToggleBan(ctx context.Context, installID, userID string) (*domain.User, error) {
	u, err := s.updateUser(ctx, installID, userID, func(u *domain.User, _ domain.AppConfig) {
		u.IsBanned = !u.IsBanned
	})
	if err != nil {
		return nil, err
	}
	action := domain.AuditActionAdminUnbanUser
	if u.IsBanned {
		action = domain.AuditActionAdminBanUser
	}
	s.action(ctx, installID, action, map[string]any{"user_id": userID})
	return u, nil
}

// AdjustBalance adds delta (possibly negative); the result is clamped at zero.
func (s *AdminService) AdjustBalance(ctx context.Context, installID, userID string, delta decimal.Decimal) (*domain.User, error) {
	u, err := s.updateUser(ctx, installID, userID, func(u *domain.User, _ domain.AppConfig) {
		u.Balance = decimal.Max(decimal.Zero, u.Balance.Add(delta))
	})
	if err != nil {
		return nil, err
	}
	s.action(ctx, installID, domain.AuditActionAdminAdjustBalance, map[string]any{
		"user_id": userID,
		"delta":   delta.String(),
		"balance": u.Balance.String(),
	})
	return u, nil
}

// CreditReferral records one referred signup for the user: the count goes up
// by one and the balance by the configured referral reward.
func (s *AdminService) CreditReferral(ctx context.Context, installID, userID string) (*domain.User, error) {
	u, err := s.updateUser(ctx, installID, userID, func(u *domain.User, cfg domain.AppConfig) {
		u.ReferralsCount++
		u.Balance = credit(u.Balance, cfg.ReferralReward)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, installID, domain.AuditActionReferralCredit, domain.AuditCategoryReferral, map[string]any{
		"user_id": userID,
		"count":   u.ReferralsCount,
	})
	return u, nil
}

func (s *AdminService) Withdrawals(ctx context.Context, installID string) ([]domain.Withdrawal, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	return s.installs.Open(installID).GetWithdrawals(ctx)
}

// Approve marks a pending withdrawal completed.
func (s *AdminService) Approve(ctx context.Context, installID, withdrawalID string) (*domain.Withdrawal, error) {
	return s.review(ctx, installID, withdrawalID, domain.WithdrawalStatusCompleted)
}

// Reject marks a pending withdrawal rejected. The debited amount is not refunded.
func (s *AdminService) Reject(ctx context.Context, installID, withdrawalID string) (*domain.Withdrawal, error) {
	return s.review(ctx, installID, withdrawalID, domain.WithdrawalStatusRejected)
}

func (s *AdminService) review(ctx context.Context, installID, withdrawalID string, status domain.WithdrawalStatus) (*domain.Withdrawal, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	list, err := r.GetWithdrawals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != withdrawalID {
			continue
		}
		if list[i].Status.Final() {
			return nil, ErrWithdrawalFinal
		}
		list[i].Status = status
		if err := r.SaveWithdrawals(ctx, list); err != nil {
			return nil, err
		}

		action, outcome := domain.AuditActionWithdrawApprove, "approved"
		if status == domain.WithdrawalStatusRejected {
			action, outcome = domain.AuditActionWithdrawReject, "rejected"
		}
		metrics.Withdrawals.WithLabelValues(outcome).Inc()
		s.action(ctx, installID, action, map[string]any{"withdrawal_id": withdrawalID})

		w := list[i]
		return &w, nil
	}
	return nil, ErrWithdrawalNotFound
}

func (s *AdminService) Tasks(ctx context.Context, installID string) ([]domain.Task, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	return s.installs.Open(installID).GetTasks(ctx)
}

// CreateTask appends a task. Without a reward it pays the configured task reward.
func (s *AdminService) CreateTask(ctx context.Context, installID string, in TaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidTask
	}
	if in.Reward != nil && in.Reward.IsNegative() {
		return nil, invalid(ErrInvalidTask, "Reward must not be negative")
	}

	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := r.GetTasks(ctx)
	if err != nil {
		return nil, err
	}

	t := domain.Task{
		ID:          domain.NewID("tsk_"),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Reward:      cfg.TaskReward,
		Link:        strings.TrimSpace(in.Link),
	}
	if in.Reward != nil {
		t.Reward = *in.Reward
	}
	if t.Link == "" {
		t.Link = domain.PlaceholderLink
	}

	if err := r.SaveTasks(ctx, append(tasks, t)); err != nil {
		return nil, err
	}
	s.action(ctx, installID, domain.AuditActionAdminCreateTask, map[string]any{"task_id": t.ID})
	return &t, nil
}

func (s *AdminService) DeleteTask(ctx context.Context, installID, taskID string) error {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	tasks, err := r.GetTasks(ctx)
	if err != nil {
		return err
	}
	kept := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return ErrTaskNotFound
	}
	if err := r.SaveTasks(ctx, kept); err != nil {
		return err
	}
	s.action(ctx, installID, domain.AuditActionAdminDeleteTask, map[string]any{"task_id": taskID})
	return nil
}

func (s *AdminService) Config(ctx context.Context, installID string) (domain.AppConfig, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	return s.installs.Open(installID).GetConfig(ctx)
}

// validate rejects negative amounts and durations; nothing is written then.
func (p ConfigPatch) validate() error {
	amounts := []struct {
		name string
		v    *decimal.Decimal
	}{
		{"miningRate", p.MiningRate},
		{"referralReward", p.ReferralReward},
		{"taskReward", p.TaskReward},
		{"minWithdrawal", p.MinWithdrawal},
		{"conversionRate", p.ConversionRate},
	}
	for _, a := range amounts {
		if a.v != nil && a.v.IsNegative() {
			return invalid(ErrInvalidConfig, "%s must not be negative", a.name)
		}
	}
	if p.MiningDuration != nil && *p.MiningDuration < 0 {
		return invalid(ErrInvalidConfig, "miningDuration must not be negative")
	}
	return nil
}

// UpdateConfig applies the patch; last write wins.
func (s *AdminService) UpdateConfig(ctx context.Context, installID string, p ConfigPatch) (domain.AppConfig, error) {
	if err := p.validate(); err != nil {
		return domain.AppConfig{}, err
	}

	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return cfg, err
	}

	if p.MiningRate != nil {
		cfg.MiningRate = *p.MiningRate
	}
	if p.MiningDuration != nil {
		cfg.MiningDuration = *p.MiningDuration
	}
	if p.ReferralReward != nil {
		cfg.ReferralReward = *p.ReferralReward
	}
	if p.TaskReward != nil {
		cfg.TaskReward = *p.TaskReward
	}
	if p.MinWithdrawal != nil {
		cfg.MinWithdrawal = *p.MinWithdrawal
	}
	if p.ConversionRate != nil {
		cfg.ConversionRate = *p.ConversionRate
	}
	if p.MonetagID != nil {
		cfg.MonetagID = *p.MonetagID
	}
	if p.AdsgramID != nil {
		cfg.AdsgramID = *p.AdsgramID
	}

	if err := r.SaveConfig(ctx, cfg); err != nil {
		return cfg, err
	}
	s.action(ctx, installID, domain.AuditActionAdminUpdateConfig, nil)
	return cfg, nil
}

// IsNotFound reports whether err means a missing user, task or withdrawal.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrWithdrawalNotFound) ||
		errors.Is(err, kv.ErrNotFound)
}
