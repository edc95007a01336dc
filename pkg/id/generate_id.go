package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID32 returns a 32-char lowercase hex identifier (16 random bytes).
// Used as the public id for loans, repayments and borrowers.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
