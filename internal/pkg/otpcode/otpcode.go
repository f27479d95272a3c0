// Package otpcode generates and hashes six-digit login codes.
package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Length is the number of decimal digits in a code.
const Length = 6

var upper = big.NewInt(1_000_000)

// cost is a variable so tests can drop to bcrypt.MinCost.
var cost = bcrypt.DefaultCost

// Generate returns a uniformly random zero-padded six-digit code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Hash returns the bcrypt hash stored in place of the plaintext code.
func Hash(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	return string(h), nil
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// DecoyHash returns a fixed hash of an unguessable value at the live cost.
// Comparing against it takes as long as checking a real code, so callers
// with no record to check can still pay the same price.
func DecoyHash() string {
	decoyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("decoy-not-a-code"), cost)
		if err != nil {
			panic(fmt.Sprintf("otpcode: build decoy hash: %v", err))
		}
		decoyHash = string(h)
	})
	return decoyHash
}

// Matches reports whether code hashes to stored.
func Matches(stored, code string) bool {
	if len(code) != Length {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(code)) == nil
}
