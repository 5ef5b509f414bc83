package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// OTP codes are six decimal digits in [otpMin, otpMin+otpSpan).
const (
	otpMin  = 100000
	otpSpan = 900000
)

// generateOTP returns a uniformly random six-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// hashOTP bcrypt-hashes a code. Only the hash is ever stored.
func hashOTP(code string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", fmt.Errorf("hashing otp: %w", err)
	}
	return string(h), nil
}

// otpMatches reports whether code hashes to otpHash.
func otpMatches(code, otpHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(otpHash), []byte(code)) == nil
}
