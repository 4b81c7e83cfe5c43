package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCustomer    UserRole = "customer"
	RoleStoreOwner  UserRole = "store_owner"
	RoleAdmin       UserRole = "admin"
	RoleMasterAdmin UserRole = "master_admin"
)

// IsAdmin is true for both admin tiers.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleMasterAdmin
}

// UserStatus moves freely between its values, unlike VerificationStatus.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusSuspended, UserStatusBanned:
		return true
	}
	return false
}

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Phone        string         `json:"phone"`
	Role         UserRole       `gorm:"type:varchar(20);default:'customer'" json:"role"`
	Status       UserStatus     `gorm:"type:varchar(20);default:'active';index" json:"status"`
	StatusReason string         `gorm:"type:text" json:"status_reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
