package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the minimal identity row this service keeps. Full identity lives in
// the storefront's identity provider; we only need enough to authenticate
// admins and to link affiliates to an account.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	DisplayName  string         `gorm:"size:100" json:"display_name"`
	Role         string         `gorm:"size:20;not null;default:'CUSTOMER';index" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
