package action

import (
	"strings"

	"github.com/google/uuid"
)

// IDLength is the number of characters in an action id.
const IDLength = 8

// NewID returns a short random id: the first IDLength lowercase hex digits
// of a v4 UUID. Hex keeps ids unambiguous when retyped by a human.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}

// NormalizeID trims whitespace and lowercases a user-supplied id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
