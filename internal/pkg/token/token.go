package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var ten = big.NewInt(10)

// Numeric generates a string of n decimal digits, each drawn uniformly from crypto/rand.
func Numeric(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate numeric code: %w", err)
		}
		b[i] = byte('0' + d.Int64())
	}
	return string(b), nil
}
