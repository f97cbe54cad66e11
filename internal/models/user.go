package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the side of the marketplace a user is currently acting as.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleHelper   Role = "helper"
)

// Valid reports whether r is a role a session may switch to.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleHelper
}

type User struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Username      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	PasswordHash  string         `gorm:"type:varchar(255);not null" json:"-"`
	FullName      string         `gorm:"type:varchar(255)" json:"full_name"`
	Phone         string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	PhoneVerified bool           `gorm:"not null;default:false" json:"phone_verified"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
