package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const ReferralCodeLength = 8

// 32 symbols without 0/O or 1/I, so a random byte maps onto it without bias.
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func GenerateReferralCode() (string, error) {
	b := make([]byte, ReferralCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i := range b {
		b[i] = referralAlphabet[int(b[i])%len(referralAlphabet)]
	}
	return string(b), nil
}

// RandomHex returns n random bytes hex encoded.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
