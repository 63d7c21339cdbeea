package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	letterBytes  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberBytes  = "0123456789"
	alphanumeric = letterBytes + numberBytes
	codeBytes    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no ambiguous chars
)

func GenerateRandomString(length int) string {
	return generateRandom(length, alphanumeric)
}

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

// GenerateReferralCode produces a human-shareable invite code.
func GenerateReferralCode() string {
	return generateRandom(ReferralCodeLength, codeBytes)
}

// GenerateReference builds a unique ledger reference with a typed prefix,
// e.g. "TXN-8f14e45f...". References derived from events (REF-<booking>-L<n>)
// are built by the caller instead; this is for request-scoped operations.
func GenerateReference(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// GenerateBookingNumber yields a short customer-facing booking identifier.
func GenerateBookingNumber() string {
	return fmt.Sprintf("BK-%s", generateRandom(10, numberBytes))
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}
