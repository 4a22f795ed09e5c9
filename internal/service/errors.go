package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUserBanned   = errors.New("user is banned")
	ErrUserNotFound = errors.New("user not found")

	ErrAlreadyMining = errors.New("mining already in progress")
	ErrNotClaimable  = errors.New("mining cycle not finished")

	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskCompleted        = errors.New("task already completed")
	ErrVerificationInFlight = errors.New("another task is being verified")

	ErrInvalidAddress      = errors.New("invalid wallet address")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrInvalidPIN         = errors.New("invalid pin")
	ErrAdminRequired      = errors.New("admin session required")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrWithdrawalFinal    = errors.New("withdrawal already processed")
	ErrInvalidTask        = errors.New("invalid task")
	ErrInvalidConfig      = errors.New("invalid config")

	ErrInvalidInitData = errors.New("invalid telegram init data")
	ErrInvalidToken    = errors.New("invalid token")
)

// ValidationError carries the message shown to the user next to the form.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error, format string, args ...any) error {
	return &ValidationError{Err: err, Message: fmt.Sprintf(format, args...)}
}

// credit adds a payout to a balance. Payouts only ever add: a negative amount
// left in a stored config or task pays nothing.
func credit(balance, amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return balance
	}
	return balance.Add(amount)
}
