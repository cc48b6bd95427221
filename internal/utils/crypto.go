package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateRandomString generates a cryptographically secure random string
// using the provided charset and length
func GenerateRandomString(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic(fmt.Sprintf("failed to generate random string: %v", err))
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// GenerateVerificationToken returns an opaque hex token with 128 bits of
// entropy, used in email verification links.
func GenerateVerificationToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate verification token: %v", err))
	}
	return hex.EncodeToString(b)
}

// GenerateResetCode returns a uniformly random 6-digit password reset code
// in the range 100000-999999.
func GenerateResetCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(fmt.Sprintf("failed to generate reset code: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
