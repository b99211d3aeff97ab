package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// BookingCodeAlphabet omits 0, 1, I and O so codes read back unambiguously.
const BookingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// BookingCodeLength is the number of characters in a booking code.
const BookingCodeLength = 6

// CodeGenerator produces candidate booking codes.
type CodeGenerator func() (string, error)

// GenerateBookingCode creates a random 6-character booking code.
func GenerateBookingCode() (string, error) {
	result := make([]byte, BookingCodeLength)
	max := big.NewInt(int64(len(BookingCodeAlphabet)))
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate booking code: %w", err)
		}
		result[i] = BookingCodeAlphabet[n.Int64()]
	}
	return string(result), nil
}

// NormalizeBookingCode trims and upper-cases a presented code.
func NormalizeBookingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsWellFormedBookingCode reports whether code has the right length and alphabet.
func IsWellFormedBookingCode(code string) bool {
	if len(code) != BookingCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(BookingCodeAlphabet, r) {
			return false
		}
	}
	return true
}
