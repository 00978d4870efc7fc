// Package password hashes and verifies credentials with bcrypt.
//
// Hashes are self-describing ($2a$<cost>$<salt><digest>), so Verify needs no
// configuration and a Codec created with a different cost still verifies
// older hashes.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput is returned by Hash for plaintexts bcrypt cannot accept.
var ErrInvalidInput = errors.New("password: invalid input")

// Codec is a bcrypt based password codec. The zero value uses
// bcrypt.DefaultCost.
type Codec struct {
	cost int
}

// NewCodec returns a Codec using cost, clamped to bcrypt's supported range.
// A non-positive cost selects bcrypt.DefaultCost.
func NewCodec(cost int) *Codec {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Codec{cost: cost}
}

// Cost reports the work factor new hashes are generated with.
func (c *Codec) Cost() int {
	if c == nil || c.cost == 0 {
		return bcrypt.DefaultCost
	}
	return c.cost
}

// Hash returns a salted bcrypt hash of plaintext.
func (c *Codec) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidInput)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.Cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(h), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes do not
// match; Verify never returns an error.
func (c *Codec) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
