package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionEntry is one ledger row per attributed order. The unique index on
// OrderID is the at-most-once guard for commission creation: a concurrent
// duplicate insert fails at the store instead of double-crediting.
type CommissionEntry struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	OrderID       string `gorm:"uniqueIndex;size:64;not null" json:"order_id"`
	AffiliateID   uint   `gorm:"not null;index" json:"affiliate_id"`
	AttributionID *uint  `gorm:"index" json:"attribution_id,omitempty"`

	OrderTotal  int64   `gorm:"not null" json:"order_total"`
	RatePercent float64 `gorm:"not null" json:"rate_percent"`
	Amount      int64   `gorm:"not null" json:"amount"`

	Status    string    `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	OrderedAt time.Time `gorm:"not null" json:"ordered_at"`

	ApprovedBy   *uint      `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedBy   *uint      `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	RejectReason string     `gorm:"size:255" json:"reject_reason,omitempty"`

	// Set when a completed payout covers this entry.
	PayoutID *uint      `gorm:"index" json:"payout_id,omitempty"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"-"`
}

func (CommissionEntry) TableName() string { return "commission_entries" }
