package models

import (
	"time"

	"gorm.io/gorm"
)

// PayoutRequest is an affiliate's withdrawal against their approved balance.
// The requested amount is reserved on the affiliate aggregate at creation and
// only settled (approved -> paid) when the request reaches a terminal
// money-moved state; rejection releases the reservation.
type PayoutRequest struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Reference   string `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	AffiliateID uint   `gorm:"not null;index" json:"affiliate_id"`

	Amount    int64  `gorm:"not null" json:"amount"`
	TaxAmount int64  `gorm:"not null" json:"tax_amount"`
	NetAmount int64  `gorm:"not null" json:"net_amount"`
	Method    string `gorm:"size:30;not null" json:"method"`

	// Destination snapshot taken from the affiliate profile at request time.
	BankName      string `gorm:"size:100;not null" json:"bank_name"`
	AccountNumber string `gorm:"size:50;not null" json:"account_number"`
	AccountHolder string `gorm:"size:100;not null" json:"account_holder"`
	BranchCode    string `gorm:"size:20" json:"branch_code,omitempty"`
	SwiftCode     string `gorm:"size:20" json:"swift_code,omitempty"`
	Currency      string `gorm:"size:3;not null;default:'JPY'" json:"currency"`

	// Informational FX snapshot for cross-currency payouts; the rate may go
	// stale before the actual transfer.
	FxRate           *float64 `json:"fx_rate,omitempty"`
	EstimatedForeign *int64   `json:"estimated_foreign,omitempty"`

	Status       string `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	Notes        string `gorm:"size:500" json:"notes,omitempty"`
	RejectReason string `gorm:"size:255" json:"reject_reason,omitempty"`

	RequestedAt   time.Time  `gorm:"not null" json:"requested_at"`
	ApprovedBy    *uint      `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CompletedBy   *uint      `json:"completed_by,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TransactionID string     `gorm:"size:128" json:"transaction_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"-"`
}

func (PayoutRequest) TableName() string { return "payout_requests" }
