package models

import "time"

// AffiliateSettings is the singleton configuration row for the referral
// program. It is lazily created with the centralized defaults on first read;
// call sites never carry their own literals.
type AffiliateSettings struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CommissionRatePercent float64   `gorm:"not null" json:"commission_rate_percent"`
	MinPayoutAmount       int64     `gorm:"not null" json:"min_payout_amount"`
	AttributionWindowDays int       `gorm:"not null" json:"attribution_window_days"`
	TaxRatePercent        float64   `gorm:"not null" json:"tax_rate_percent"`
	EnabledPayoutMethods  string    `gorm:"size:255;not null" json:"enabled_payout_methods"` // comma separated
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (AffiliateSettings) TableName() string { return "affiliate_settings" }
