package fee

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount falls outside the allowed range.
var ErrInvalidAmount = errors.New("amount out of allowed range")

// Transfer amount bounds and fee rate
var (
	MinTransfer = decimal.NewFromInt(1)       // Smallest transferable amount: 1.00
	MaxTransfer = decimal.NewFromInt(10000)   // Largest transferable amount: 10000.00
	rate        = decimal.NewFromFloat(0.005) // 0.5% per transfer
)

// Quote computes the fee and total debit for a transfer amount. The fee is
// 0.5% of the amount rounded half-up to two decimal places; the total is
// amount + fee. Amounts outside [MinTransfer, MaxTransfer] are rejected with
// ErrInvalidAmount. Pure function, no side effects.
func Quote(amount decimal.Decimal) (fee, total decimal.Decimal, err error) {
	if amount.LessThan(MinTransfer) || amount.GreaterThan(MaxTransfer) {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	fee = amount.Mul(rate).Round(2)
	return fee, amount.Add(fee), nil
}
