// Package security provides the credential primitives used by the auth
// flows: one-way bcrypt hashing for passwords and OTP codes, reversible
// AES-GCM encryption for phone numbers, and OTP generation.
package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const otpLength = 6

// HashSecret hashes a password or OTP code with bcrypt.
func HashSecret(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hashed), nil
}

// CompareSecret reports whether plain matches the stored bcrypt hash.
func CompareSecret(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GenerateOTP returns a 6-digit numeric one-time code.
func GenerateOTP() (string, error) {
	code := make([]byte, otpLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
