package model

import (
	"time"

	"gorm.io/gorm"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}

// Product listings go live only after an admin approves them.
type Product struct {
	ID               uint             `gorm:"primarykey" json:"id"`
	StoreID          uint             `gorm:"index;not null" json:"store_id"`
	Name             string           `gorm:"not null" json:"name"`
	Description      string           `gorm:"type:text" json:"description"`
	Price            float64          `gorm:"not null" json:"price"`
	Unit             string           `gorm:"type:varchar(20)" json:"unit"` // kg, bunch, piece
	ImageURL         string           `json:"image_url"`
	ModerationStatus ModerationStatus `gorm:"type:varchar(20);default:'pending';index" json:"moderation_status"`
	RejectionReason  string           `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy       *uint            `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`

	Store *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
}

func (Product) TableName() string {
	return "products"
}
