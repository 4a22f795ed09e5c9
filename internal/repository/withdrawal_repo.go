package repository

import (
	"context"

	"olo_mining/internal/domain"
)

// GetWithdrawals returns all requests, newest first.
func (r *Install) GetWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	var list []domain.Withdrawal
	if _, err := r.load(ctx, domain.KeyWithdrawals, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Withdrawal{}
	}
	return list, nil
}

func (r *Install) SaveWithdrawals(ctx context.Context, list []domain.Withdrawal) error {
	return r.Batch().Withdrawals(list).Commit(ctx)
}

// CountPending counts withdrawals still awaiting review.
func CountPending(list []domain.Withdrawal) int {
	n := 0
	for _, w := range list {
		if w.Status == domain.WithdrawalStatusPending {
			n++
		}
	}
	return n
}
