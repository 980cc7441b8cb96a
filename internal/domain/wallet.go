package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet statuses
const (
	WalletStatusActive = "active"
	WalletStatusFrozen = "frozen"
)

// Wallet Model
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                            // Primary key
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`             // Owning user, one wallet per user
	WalletID  string          `gorm:"size:50;uniqueIndex;not null" json:"wallet_id"`   // Public wallet identifier (QP-prefixed)
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`      // Balance, invariant >= 0
	Currency  string          `gorm:"size:3;not null;default:USD" json:"currency"`     // ISO 4217 currency code
	Status    string          `gorm:"size:20;not null;default:active" json:"status"`   // active or frozen
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
