package security

import (
	"errors"
	"fmt"
)

// Payload limits applied when a caller passes zero.
const (
	DefaultMaxPayloadSize = 1 << 20
	DefaultMaxJSONDepth   = 32
)

var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	ErrJSONTooDeep     = errors.New("JSON nesting exceeds maximum depth")
)

// CheckSize returns ErrPayloadTooLarge when n bytes exceed limit.
func CheckSize(n, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxPayloadSize
	}
	if n > limit {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, n, limit)
	}
	return nil
}

// CheckJSONDepth scans data for objects and arrays nested deeper than limit
// before it is handed to a decoder. Brackets inside strings are ignored.
// Malformed input is left for the decoder to report.
func CheckJSONDepth(data []byte, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxJSONDepth
	}
	depth := 0
	inString, escaped := false, false
	for _, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > limit {
				return fmt.Errorf("%w: max %d", ErrJSONTooDeep, limit)
			}
		case '}', ']':
			depth--
		}
	}
	return nil
}
