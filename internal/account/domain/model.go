// Package domain contains core types for the account service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
	StatusBanned   AccountStatus = "banned"
)

// Account represents a person's login identity.
type Account struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	Email        string        `gorm:"type:varchar(255);not null;uniqueIndex:ux_accounts_email" json:"email"`
	PasswordHash string        `gorm:"type:varchar(255);not null" json:"-"`
	Name         string        `gorm:"type:varchar(100);not null" json:"name"`
	Avatar       string        `gorm:"type:varchar(500)" json:"avatar,omitempty"`
	Status       AccountStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	LastLoginAt  *time.Time    `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	LastLoginIP  string        `gorm:"column:last_login_ip;type:varchar(45)" json:"-"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// IsActive reports whether the account may authenticate.
func (a *Account) IsActive() bool { return a.Status == StatusActive }
