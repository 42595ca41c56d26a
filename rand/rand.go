// Package rand provides the random data of the handshake and the names of
// connections and recordings.
package rand

import (
	cryptoRand "crypto/rand"

	"github.com/google/uuid"
)

// Fill fills b with cryptographically-safe random data.
func Fill(b []byte) error {
	_, err := cryptoRand.Read(b)
	return err
}

// NewName returns a random UUID in string format (including hyphens).
func NewName() string {
	return uuid.NewString()
}

// ShortName returns the first group of a new name, enough to tell apart the
// connections in a log.
func ShortName() string {
	id := uuid.New()
	return id.String()[:8]
}
