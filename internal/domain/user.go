package domain

import "time"

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User account statuses
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                          // Primary key
	FirstName string    `gorm:"size:100;not null" json:"first_name"`           // Given name
	LastName  string    `gorm:"size:100;not null" json:"last_name"`            // Family name
	Email     string    `gorm:"size:120;uniqueIndex;not null" json:"email"`    // Unique login email
	Password  string    `gorm:"size:255;not null" json:"-"`                    // Bcrypt hash, never serialized
	Phone     string    `gorm:"size:30" json:"phone,omitempty"`                // Optional contact number
	Country   string    `gorm:"size:100" json:"country,omitempty"`             // Optional country
	Role      string    `gorm:"size:20;not null;default:user" json:"role"`     // Role: user or admin
	Status    string    `gorm:"size:20;not null;default:active" json:"status"` // active or suspended
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Wallet    Wallet    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"` // One-to-one relationship with Wallet
}

// FullName returns the display name used in transaction listings.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
