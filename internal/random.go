// Package internal holds small helpers shared by gatehouse packages:
// crypto/rand backed key and salt generation.
package internal

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

// NewKey returns n cryptographically random bytes.
func NewKey(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("key length must be positive")
	}
	key := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// NewSalt returns a random string of length n drawn from alphabet, using
// rejection-free uniform sampling via crypto/rand.
func NewSalt(alphabet string, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("salt length must be positive")
	}
	if len(alphabet) < 2 {
		return "", errors.New("salt alphabet too small")
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
