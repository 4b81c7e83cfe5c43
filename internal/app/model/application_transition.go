package model

import "time"

// ApplicationTransition is one row of an application's status history.
// FromStatus is empty for the initial submission entry.
type ApplicationTransition struct {
	ID            uint               `gorm:"primarykey" json:"id"`
	ApplicationID uint               `gorm:"index;not null" json:"application_id"`
	FromStatus    VerificationStatus `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus      VerificationStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	Reason        string             `gorm:"type:text" json:"reason,omitempty"`
	ActorID       *uint              `json:"actor_id,omitempty"`
	ActorRole     UserRole           `gorm:"type:varchar(20)" json:"actor_role,omitempty"`
	IPAddress     string             `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent     string             `gorm:"type:text" json:"-"`
	Device        string             `gorm:"type:varchar(120)" json:"device,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func (ApplicationTransition) TableName() string {
	return "application_transitions"
}
