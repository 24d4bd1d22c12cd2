package models

import (
	"time"

	"gorm.io/gorm"
)

// Attribution binds a storefront visitor/session to a referral code for a
// bounded window. One row per (visitor, referral code); a later click on the
// same pair refreshes LastClickAt and ExpiresAt. Expiry is flipped lazily on
// read and by the background sweeper.
type Attribution struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	VisitorID    string `gorm:"size:128;not null;uniqueIndex:idx_attr_visitor_code,priority:1;index" json:"visitor_id"`
	SessionID    string `gorm:"size:128" json:"session_id"`
	ReferralCode string `gorm:"size:20;not null;uniqueIndex:idx_attr_visitor_code,priority:2" json:"referral_code"`
	AffiliateID  uint   `gorm:"not null;index" json:"affiliate_id"`

	FirstClickAt time.Time `gorm:"not null" json:"first_click_at"`
	LastClickAt  time.Time `gorm:"not null" json:"last_click_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	IsActive     bool      `gorm:"not null;default:true;index" json:"is_active"`

	// Stamped once the visitor registers or checks out.
	BoundUserID *uint      `gorm:"index" json:"bound_user_id,omitempty"`
	BoundEmail  string     `gorm:"size:191" json:"bound_email,omitempty"`
	BoundAt     *time.Time `json:"bound_at,omitempty"`

	// Running totals for orders credited through this attribution.
	OrderCount      int64 `gorm:"not null;default:0" json:"order_count"`
	TotalGMV        int64 `gorm:"column:total_gmv;not null;default:0" json:"total_gmv"`
	TotalCommission int64 `gorm:"not null;default:0" json:"total_commission"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"-"`
}

func (Attribution) TableName() string { return "attributions" }

// Expired reports whether the attribution window has elapsed at the given time.
func (a *Attribution) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
