package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TxTypeTransfer        = "transfer"
	TxTypeAddFunds        = "add_funds"
	TxTypeAdminAdjustment = "admin_adjustment"
)

// Transaction statuses
const (
	TxStatusCompleted = "completed"
	TxStatusPending   = "pending"
	TxStatusFailed    = "failed"
)

// Transaction Model. Rows are append-only; a completed transaction is never
// mutated afterwards.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`                               // Primary key
	TransactionID string          `gorm:"size:50;uniqueIndex;not null" json:"transaction_id"` // Public identifier (TXN-prefixed)
	SenderID      uint            `gorm:"index;not null" json:"sender_id"`                    // Debited user
	ReceiverID    uint            `gorm:"index;not null" json:"receiver_id"`                  // Credited user
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`          // Amount credited to the receiver
	Fee           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"fee"`             // Fee retained by the system
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`    // Amount + Fee, debited from the sender
	Type          string          `gorm:"size:30;not null;default:transfer" json:"type"`      // transfer, add_funds or admin_adjustment
	Status        string          `gorm:"size:20;not null;default:completed;index" json:"status"`
	Note          string          `gorm:"type:text" json:"note,omitempty"` // Free-form note from the sender
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
