package utils

import (
	"strings"

	"github.com/google/uuid" // Collision-resistant random identifiers
)

// NewPublicID returns a prefixed public identifier, e.g. "TXN-3F9A2C…".
// The random part is 20 hex characters (80 bits), enough to make collisions
// on transaction and wallet IDs practically impossible.
func NewPublicID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:20])
}
