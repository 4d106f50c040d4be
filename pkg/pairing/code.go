package pairing

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// MaxCodeLength is the maximum number of digits in a pairing code.
const MaxCodeLength = 6

// Pairing code errors.
var (
	ErrEmptyCode   = errors.New("pairing code is empty")
	ErrCodeTooLong = errors.New("pairing code too long")
	ErrCodeDigits  = errors.New("pairing code must contain only digits")
)

// Code is a user-entered pairing code.
type Code string

// ParseCode validates user input as a pairing code.
// Surrounding whitespace is ignored.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyCode
	}
	if len(s) > MaxCodeLength {
		return "", fmt.Errorf("%w: %d > %d digits", ErrCodeTooLong, len(s), MaxCodeLength)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrCodeDigits, r)
		}
	}
	return Code(s), nil
}

// DefaultCodeLength is the number of digits GenerateCode produces when
// asked for zero.
const DefaultCodeLength = 4

// GenerateCode returns a cryptographically random code of the given number
// of digits, with leading zeros.
func GenerateCode(digits int) (Code, error) {
	if digits == 0 {
		digits = DefaultCodeLength
	}
	if digits < 0 || digits > MaxCodeLength {
		return "", fmt.Errorf("%w: %d digits", ErrCodeTooLong, digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate random pairing code: %w", err)
	}
	return Code(fmt.Sprintf("%0*d", digits, n.Int64())), nil
}

// Bytes returns the raw bytes hashed during key derivation.
func (c Code) Bytes() []byte {
	return []byte(c)
}

// String masks all but the last digit so codes can be shown in status output.
func (c Code) String() string {
	if len(c) <= 1 {
		return strings.Repeat("*", len(c))
	}
	return strings.Repeat("*", len(c)-1) + string(c[len(c)-1])
}
