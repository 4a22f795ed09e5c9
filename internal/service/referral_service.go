package service

import (
	"context"
	"fmt"

	"olo_mining/internal/repository"

	"github.com/shopspring/decimal"
)

type ReferralView struct {
	Code        string          `json:"code"`
	Link        string          `json:"link"`
	Count       int             `json:"count"`
	Reward      decimal.Decimal `json:"reward"`
	TotalEarned decimal.Decimal `json:"totalEarned"`
}

// ReferralService renders the referral screen. The count itself only moves
// through external referral events (see AdminService.CreditReferral).
type ReferralService struct {
	installs    *repository.Installs
	botUsername string
}

func NewReferralService(installs *repository.Installs, botUsername string) *ReferralService {
	return &ReferralService{installs: installs, botUsername: botUsername}
}

func (s *ReferralService) Link(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, code)
}

func (s *ReferralService) View(ctx context.Context, installID string) (*ReferralView, error) {
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
	return &ReferralView{
		Code:        u.ReferralCode,
		Link:        s.Link(u.ReferralCode),
		Count:       u.ReferralsCount,
		Reward:      cfg.ReferralReward,
		TotalEarned: cfg.ReferralReward.Mul(decimal.NewFromInt(int64(u.ReferralsCount))),
	}, nil
}
