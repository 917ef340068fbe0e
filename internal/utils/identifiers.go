package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateSecureRandomString generates a cryptographically secure random string of the specified byte length,
// then hex encodes it. For example, lengthInBytes=32 will result in a 64-character hex string.
func GenerateSecureRandomString(lengthInBytes int) (string, error) {
	if lengthInBytes <= 0 {
		return "", fmt.Errorf("lengthInBytes must be positive")
	}
	b := make([]byte, lengthInBytes)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewReferenceNumber builds a unique, human-quotable transaction reference,
// e.g. "EX-20260115-4F2A9C1B". Uniqueness is enforced by the database; the
// random suffix makes collisions under one day practically impossible.
func NewReferenceNumber(now time.Time) (string, error) {
	suffix, err := GenerateSecureRandomString(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EX-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(suffix)), nil
}

// NewAccountNumber builds an account number with a currency prefix,
// e.g. "USD-9C1B4F2A8D".
func NewAccountNumber(currency string, _ time.Time) (string, error) {
	suffix, err := GenerateSecureRandomString(5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", currency, strings.ToUpper(suffix)), nil
}
