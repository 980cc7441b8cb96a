package domain

import "time"

// Notification types
const (
	NotificationInfo        = "info"
	NotificationTransaction = "transaction"
)

// Notification Model
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID    uint       `gorm:"index;not null" json:"user_id"`             // Recipient user
	Title     string     `gorm:"size:200;not null" json:"title"`            // Short headline
	Message   string     `gorm:"type:text;not null" json:"message"`         // Body text
	Type      string     `gorm:"size:50;not null;default:info" json:"type"` // info or transaction
	IsRead    bool       `gorm:"not null;default:false;index" json:"is_read"`
	Link      string     `gorm:"size:500" json:"link,omitempty"` // Optional link to the related resource
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"` // Set when the notification is read
}
