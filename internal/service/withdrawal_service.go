package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"olo_mining/internal/domain"
	"olo_mining/internal/metrics"
	"olo_mining/internal/repository"

	"github.com/shopspring/decimal"
)

// BEP20 account address: 0x followed by 20 bytes of hex.
var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// WithdrawalNotifier is told about every accepted request.
type WithdrawalNotifier interface {
	NotifyWithdrawal(ctx context.Context, installID string, u *domain.User, w domain.Withdrawal)
}

// WalletView is everything the wallet screen shows.
type WalletView struct {
	Balance       decimal.Decimal     `json:"balance"`
	USDT          decimal.Decimal     `json:"usdt"`
	WalletAddress string              `json:"walletAddress"`
	MinWithdrawal decimal.Decimal     `json:"minWithdrawal"`
	History       []domain.Withdrawal `json:"history"`
}

type WithdrawalService struct {
	installs *repository.Installs
	audit    *AuditService
	delay    time.Duration
	now      func() time.Time

	mu        sync.Mutex
	notifiers []WithdrawalNotifier
}

func NewWithdrawalService(installs *repository.Installs, audit *AuditService, delay time.Duration) *WithdrawalService {
	return &WithdrawalService{
		installs: installs,
		audit:    audit,
		delay:    delay,
		now:      time.Now,
	}
}

func (s *WithdrawalService) AddNotifier(n WithdrawalNotifier) {
	s.mu.Lock()
	s.notifiers = append(s.notifiers, n)
	s.mu.Unlock()
}

// Wallet returns the balance, the prefill address and the user's request history.
func (s *WithdrawalService) Wallet(ctx context.Context, installID string) (*WalletView, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	u, err := r.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	all, err := r.GetWithdrawals(ctx)
	if err != nil {
		return nil, err
	}

	history := make([]domain.Withdrawal, 0, len(all))
	for _, w := range all {
		if w.UserID == u.ID {
			history = append(history, w)
		}
	}
	return &WalletView{
		Balance:       u.Balance,
		USDT:          cfg.ToUSDT(u.Balance),
		WalletAddress: u.WalletAddress,
		MinWithdrawal: cfg.MinWithdrawal,
		History:       history,
	}, nil
}

// Validate runs the checks in order address, amount, balance and stops at the
// first failure. The address is matched as entered, surrounding spaces included.
func Validate(address, amount string, balance decimal.Decimal, cfg domain.AppConfig) (decimal.Decimal, error) {
	if !addressPattern.MatchString(address) {
		return decimal.Zero, invalid(ErrInvalidAddress, "Invalid BEP20 Wallet Address")
	}

	amt, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !amt.IsPositive() || amt.LessThan(cfg.MinWithdrawal) {
		return decimal.Zero, invalid(ErrBelowMinimum, "Minimum withdrawal is %s OLO", cfg.MinWithdrawal)
	}

	if amt.GreaterThan(balance) {
		return decimal.Zero, invalid(ErrInsufficientBalance, "Insufficient OLO balance")
	}
	return amt, nil
}

// Withdraw validates the request, waits out the simulated network delay and
// then records the pending withdrawal, debits the balance and remembers the
// address in one write. The delay cannot be cancelled once started.
func (s *WithdrawalService) Withdraw(ctx context.Context, installID, address, amount string) (*domain.Withdrawal, error) {
	if err := s.precheck(ctx, installID, address, amount); err != nil {
		return nil, err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		<-timer.C
	}
	ctx = context.WithoutCancel(ctx)

	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	u, err := r.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}
	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	// The balance may have moved during the delay.
	amt, err := Validate(address, amount, u.Balance, cfg)
	if err != nil {
		s.countRejected(err)
		return nil, err
	}
	list, err := r.GetWithdrawals(ctx)
	if err != nil {
		return nil, err
	}

	w := domain.Withdrawal{
		ID:            domain.NewID("wdr_"),
		UserID:        u.ID,
		Amount:        amt,
		WalletAddress: address,
		Status:        domain.WithdrawalStatusPending,
		CreatedAt:     s.now().UnixMilli(),
	}
	u.Balance = u.Balance.Sub(amt)
	u.WalletAddress = address

	list = append([]domain.Withdrawal{w}, list...)
	if err := r.Batch().User(u).Withdrawals(list).Commit(ctx); err != nil {
		return nil, err
	}

	metrics.Withdrawals.WithLabelValues("requested").Inc()
	s.audit.Log(ctx, installID, domain.AuditActionWithdrawRequest, domain.AuditCategoryWithdrawal, map[string]any{
		"withdrawal_id": w.ID,
		"amount":        amt.String(),
		"user_id":       u.ID,
	})

	s.mu.Lock()
	notifiers := append([]WithdrawalNotifier{}, s.notifiers...)
	s.mu.Unlock()
	for _, n := range notifiers {
		n.NotifyWithdrawal(ctx, installID, u, w)
	}
	return &w, nil
}

func (s *WithdrawalService) precheck(ctx context.Context, installID, address, amount string) error {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	u, err := r.GetUser(ctx)
	if err != nil {
		return err
	}
	if u.IsBanned {
		return ErrUserBanned
	}
	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return err
	}
	if _, err := Validate(address, amount, u.Balance, cfg); err != nil {
		s.countRejected(err)
		return err
	}
	return nil
}

func (s *WithdrawalService) countRejected(err error) {
	var outcome string
	switch {
	case errors.Is(err, ErrInvalidAddress):
		outcome = "invalid_address"
	case errors.Is(err, ErrBelowMinimum):
		outcome = "below_minimum"
	case errors.Is(err, ErrInsufficientBalance):
		outcome = "insufficient_balance"
	default:
		return
	}
	metrics.Withdrawals.WithLabelValues(outcome).Inc()
}
