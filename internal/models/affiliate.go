package models

import (
	"time"

	"gorm.io/gorm"
)

// Affiliate is a user enrolled in the referral program. The commission
// aggregates form the ledger's balance sheet and must satisfy
//
//	TotalCommission == PendingCommission + ApprovedCommission + PaidCommission
//
// after every mutation. ReservedCommission tracks the portion of
// ApprovedCommission held against open payout requests; the withdrawable
// balance is ApprovedCommission - ReservedCommission. All amounts are whole
// yen.
type Affiliate struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	DisplayName  string `gorm:"size:100;not null" json:"display_name"`
	Email        string `gorm:"size:191;not null" json:"email"`
	ReferralCode string `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`

	TotalClicks    int64 `gorm:"not null;default:0" json:"total_clicks"`
	TotalReferrals int64 `gorm:"not null;default:0" json:"total_referrals"`
	TotalOrders    int64 `gorm:"not null;default:0" json:"total_orders"`
	TotalGMV       int64 `gorm:"column:total_gmv;not null;default:0" json:"total_gmv"`

	TotalCommission    int64 `gorm:"not null;default:0" json:"total_commission"`
	PendingCommission  int64 `gorm:"not null;default:0" json:"pending_commission"`
	ApprovedCommission int64 `gorm:"not null;default:0" json:"approved_commission"`
	ReservedCommission int64 `gorm:"not null;default:0" json:"reserved_commission"`
	PaidCommission     int64 `gorm:"not null;default:0" json:"paid_commission"`

	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
	Tier     string `gorm:"size:20;not null;default:'BRONZE'" json:"tier"`

	// Payout destination, snapshotted onto each payout request.
	BankName      string `gorm:"size:100" json:"bank_name"`
	AccountNumber string `gorm:"size:50" json:"account_number"`
	AccountHolder string `gorm:"size:100" json:"account_holder"`
	BranchCode    string `gorm:"size:20" json:"branch_code"`
	SwiftCode     string `gorm:"size:20" json:"swift_code"`
	BankCurrency  string `gorm:"size:3;default:'JPY'" json:"bank_currency"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Affiliate) TableName() string { return "affiliates" }

// AvailableBalance is the amount currently withdrawable: approved commission
// minus what is already reserved by open payout requests.
func (a *Affiliate) AvailableBalance() int64 {
	return a.ApprovedCommission - a.ReservedCommission
}

// HasBankInfo reports whether the minimum bank fields for a payout are set.
func (a *Affiliate) HasBankInfo() bool {
	return a.BankName != "" && a.AccountNumber != "" && a.AccountHolder != ""
}
