package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationApplicationApproved NotificationType = "application_approved"
	NotificationApplicationRejected NotificationType = "application_rejected"
	NotificationApplicationReminder NotificationType = "application_reminder"
	NotificationProductRejected     NotificationType = "product_rejected"
	NotificationAccountStatus       NotificationType = "account_status"
)

// Notification is an in-app message shown in the recipient's inbox.
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint             `gorm:"not null;index" json:"user_id"`
	Type   NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`

	Title   string `gorm:"type:text;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	Link    string `gorm:"type:text" json:"link"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`

	RelatedApplicationID *uint `gorm:"index" json:"related_application_id,omitempty"`
	RelatedProductID     *uint `gorm:"index" json:"related_product_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
