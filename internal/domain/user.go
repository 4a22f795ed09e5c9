package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTelegramID is used when the session carries no Telegram identity.
const DefaultTelegramID = "current_user"

var initialBalance = decimal.NewFromInt(5)

// User is the one active account of an install.
type User struct {
	ID             string          `json:"id"`
	TelegramID     string          `json:"telegramId"`
	Username       string          `json:"username"`
	Balance        decimal.Decimal `json:"balance"`
	ReferralCode   string          `json:"referralCode"`
	ReferredBy     string          `json:"referredBy,omitempty"`
	ReferralsCount int             `json:"referralsCount"`
	// Unix milliseconds; nil while idle.
	MiningStartTime *int64 `json:"miningStartTime"`
	IsBanned        bool   `json:"isBanned"`
	WalletAddress   string `json:"walletAddress,omitempty"`
}

// NewUser builds the record created on first access of an install.
func NewUser(telegramID, username string) *User {
	if telegramID == "" {
		telegramID = DefaultTelegramID
	}
	if username == "" {
		username = "CryptoExplorer"
	}
	return &User{
		ID:           NewID("usr_"),
		TelegramID:   telegramID,
		Username:     username,
		Balance:      initialBalance,
		ReferralCode: "OLO_" + strings.ToUpper(randomToken(5)),
	}
}

// MiningStartedAt reports the start of the current cycle, if any.
func (u *User) MiningStartedAt() (time.Time, bool) {
	if u.MiningStartTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*u.MiningStartTime), true
}

func (u *User) SetMiningStart(t time.Time) {
	ms := t.UnixMilli()
	u.MiningStartTime = &ms
}

func (u *User) ClearMiningStart() {
	u.MiningStartTime = nil
}

// Clone returns a deep copy so callers never share the pointer field.
func (u *User) Clone() *User {
	c := *u
	if u.MiningStartTime != nil {
		ms := *u.MiningStartTime
		c.MiningStartTime = &ms
	}
	return &c
}

// NewID returns prefix followed by nine lowercase alphanumerics.
func NewID(prefix string) string {
	return prefix + randomToken(9)
}

func randomToken(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return s[:n]
}
