package service

import (
	"context"
	"time"

	"olo_mining/internal/domain"
	"olo_mining/internal/metrics"
	"olo_mining/internal/mining"
	"olo_mining/internal/repository"

	"github.com/shopspring/decimal"
)

// MiningView is everything the mining screen shows.
type MiningView struct {
	mining.State
	Rate      decimal.Decimal `json:"rate"`
	Balance   decimal.Decimal `json:"balance"`
	USDT      decimal.Decimal `json:"usdt"`
	Countdown string          `json:"countdown"`
	StartedAt *int64          `json:"startedAt"`
}

type MiningService struct {
	installs *repository.Installs
	audit    *AuditService
	now      func() time.Time
}

func NewMiningService(installs *repository.Installs, audit *AuditService) *MiningService {
	return &MiningService{installs: installs, audit: audit, now: time.Now}
}

// SetClock replaces the time source.
func (s *MiningService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MiningService) view(u *domain.User, cfg domain.AppConfig) *MiningView {
	var start *time.Time
	if t, ok := u.MiningStartedAt(); ok {
		start = &t
	}
	st := mining.Evaluate(start, s.now(), cfg.MiningDuration, cfg.MiningRate)
	return &MiningView{
		State:     st,
		Rate:      cfg.MiningRate,
		Balance:   u.Balance,
		USDT:      cfg.ToUSDT(u.Balance),
		Countdown: mining.FormatCountdown(st.Remaining),
		StartedAt: u.MiningStartTime,
	}
}

func (s *MiningService) load(ctx context.Context, r *repository.Install) (*domain.User, domain.AppConfig, error) {
	u, err := r.GetUser(ctx)
	if err != nil {
		return nil, domain.AppConfig{}, err
	}
	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return nil, domain.AppConfig{}, err
	}
	return u, cfg, nil
}

// Status derives the current cycle state from the stored start time.
func (s *MiningService) Status(ctx context.Context, installID string) (*MiningView, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	u, cfg, err := s.load(ctx, s.installs.Open(installID))
	if err != nil {
		return nil, err
	}
	return s.view(u, cfg), nil
}

// Start moves an idle user into a running cycle.
func (s *MiningService) Start(ctx context.Context, installID string) (*MiningView, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	u, cfg, err := s.load(ctx, r)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}
	if _, running := u.MiningStartedAt(); running {
		return nil, ErrAlreadyMining
	}

	now := s.now()
	u.SetMiningStart(now)
	if err := r.SaveUser(ctx, u); err != nil {
		return nil, err
	}

	metrics.MiningEvents.WithLabelValues("start").Inc()
	s.audit.Log(ctx, installID, domain.AuditActionMiningStart, domain.AuditCategoryMining, map[string]any{
		"user_id": u.ID,
	})
	return s.view(u, cfg), nil
}

// Claim pays the full mining rate for a finished cycle and returns the user to idle.
// Clearing the start time in the same write is what prevents a second payout.
func (s *MiningService) Claim(ctx context.Context, installID string) (*MiningView, error) {
	unlock := s.installs.Lock(installID)
	defer unlock()

	r := s.installs.Open(installID)
	u, cfg, err := s.load(ctx, r)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}
	if !s.view(u, cfg).Claimable() {
		return nil, ErrNotClaimable
	}

	u.Balance = credit(u.Balance, cfg.MiningRate)
	u.ClearMiningStart()
	if err := r.SaveUser(ctx, u); err != nil {
		return nil, err
	}

	metrics.MiningEvents.WithLabelValues("claim").Inc()
	s.audit.Log(ctx, installID, domain.AuditActionMiningClaim, domain.AuditCategoryMining, map[string]any{
		"user_id": u.ID,
		"amount":  cfg.MiningRate.String(),
	})
	return s.view(u, cfg), nil
}
