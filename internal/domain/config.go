package domain

import "github.com/shopspring/decimal"

func init() {
	// Blobs keep the numeric shape of the original store (10, not "10").
	decimal.MarshalJSONWithoutQuotes = true
}

// AppConfig holds the install-wide tunables edited from the admin console.
type AppConfig struct {
	MiningRate     decimal.Decimal `json:"miningRate"`     // OLO per completed cycle
	MiningDuration int64           `json:"miningDuration"` // seconds
	ReferralReward decimal.Decimal `json:"referralReward"`
	TaskReward     decimal.Decimal `json:"taskReward"`
	MinWithdrawal  decimal.Decimal `json:"minWithdrawal"`
	ConversionRate decimal.Decimal `json:"conversionRate"` // OLO per USDT, display only
	MonetagID      string          `json:"monetagId,omitempty"`
	AdsgramID      string          `json:"adsgramId,omitempty"`
}

func DefaultConfig() AppConfig {
	return AppConfig{
		MiningRate:     decimal.NewFromInt(10),
		MiningDuration: 3600,
		ReferralReward: decimal.NewFromInt(1),
		TaskReward:     decimal.NewFromInt(1),
		MinWithdrawal:  decimal.NewFromInt(10),
		ConversionRate: decimal.NewFromInt(10),
		MonetagID:      "7823941",
		AdsgramID:      "olo_prod_live",
	}
}

// ToUSDT converts an OLO amount for display. A non-positive rate yields zero.
func (c AppConfig) ToUSDT(amount decimal.Decimal) decimal.Decimal {
	if !c.ConversionRate.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(c.ConversionRate).Round(2)
}
