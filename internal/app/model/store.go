package model

import (
	"time"

	"gorm.io/gorm"
)

// Store is created when an application is approved. Unlike the application,
// its IsActive flag can be toggled back and forth by admins.
type Store struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ApplicationID uint           `gorm:"uniqueIndex;not null" json:"application_id"`
	UserID        *uint          `gorm:"index" json:"user_id,omitempty"`
	Name          string         `gorm:"not null" json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`
	StoreType     StoreType      `gorm:"type:varchar(20);not null" json:"store_type"`
	Description   string         `gorm:"type:text" json:"description"`
	Location      string         `gorm:"type:varchar(255)" json:"location"`
	PhoneNumber   string         `gorm:"type:varchar(32)" json:"phone_number"`
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Products []Product `gorm:"foreignKey:StoreID" json:"products,omitempty"`
}

func (Store) TableName() string {
	return "stores"
}
