package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus moves pending -> completed | rejected and never again.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// Final reports whether the status is terminal.
func (s WithdrawalStatus) Final() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusRejected
}

type Withdrawal struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	Amount        decimal.Decimal  `json:"amount"`
	WalletAddress string           `json:"walletAddress"`
	Status        WithdrawalStatus `json:"status"`
	// Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

func (w Withdrawal) Created() time.Time {
	return time.UnixMilli(w.CreatedAt)
}
