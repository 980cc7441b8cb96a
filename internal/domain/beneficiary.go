package domain

import "time"

// Beneficiary Model: a saved recipient owned by a user. Carries no balance.
type Beneficiary struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                 // Primary key
	UserID       uint      `gorm:"index;not null" json:"user_id"`        // Owning user
	Name         string    `gorm:"size:200;not null" json:"name"`        // Display name
	Email        string    `gorm:"size:120;not null" json:"email"`       // Contact email
	WalletID     string    `gorm:"size:50;not null" json:"wallet_id"`    // Saved recipient wallet identifier
	Relationship string    `gorm:"size:100" json:"relationship,omitempty"` // Optional relationship label
	CreatedAt    time.Time `json:"created_at"`
}
