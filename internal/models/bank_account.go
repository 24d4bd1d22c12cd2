package models

import (
	"time"

	"gorm.io/gorm"
)

// BankAccount is an admin-managed company account, shown to customers for
// bank-transfer payment or used as the payout source. At most one default
// account per country scope.
type BankAccount struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	BankName      string         `gorm:"size:100;not null" json:"bank_name"`
	AccountNumber string         `gorm:"size:50;not null" json:"account_number"`
	AccountHolder string         `gorm:"size:100;not null" json:"account_holder"`
	CountryCode   string         `gorm:"size:2;not null;default:'JP';index" json:"country_code"`
	Currency      string         `gorm:"size:3;not null;default:'JPY'" json:"currency"`
	BranchCode    string         `gorm:"size:20" json:"branch_code,omitempty"`
	SwiftCode     string         `gorm:"size:20" json:"swift_code,omitempty"`
	BankCode      string         `gorm:"size:20" json:"bank_code,omitempty"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	IsDefault     bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BankAccount) TableName() string { return "bank_accounts" }
