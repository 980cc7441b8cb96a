package fee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	cases := []struct {
		amount string
		fee    string
		total  string
	}{
		{"50.00", "0.25", "50.25"},
		{"100.00", "0.50", "100.50"},
		{"1.00", "0.01", "1.01"},    // 0.005 rounds half-up to 0.01
		{"1.10", "0.01", "1.11"},    // 0.0055 rounds up
		{"3.33", "0.02", "3.35"},    // 0.01665 rounds up
		{"2.00", "0.01", "2.01"},
		{"10000.00", "50.00", "10050.00"},
	}
	for _, tc := range cases {
		amount := decimal.RequireFromString(tc.amount)
		fee, total, err := Quote(amount)
		require.NoError(t, err, "amount %s", tc.amount)
		assert.Equal(t, tc.fee, fee.StringFixed(2), "fee for %s", tc.amount)
		assert.Equal(t, tc.total, total.StringFixed(2), "total for %s", tc.amount)
		assert.True(t, total.Equal(amount.Add(fee)), "total must equal amount+fee for %s", tc.amount)
	}
}

func TestQuoteRejectsOutOfRangeAmounts(t *testing.T) {
	for _, amount := range []string{"0", "0.99", "-5.00", "10000.01", "999999"} {
		_, _, err := Quote(decimal.RequireFromString(amount))
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %s", amount)
	}
}
