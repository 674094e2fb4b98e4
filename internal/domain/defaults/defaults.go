// Package defaults generates default values for settings and dependencies.
package defaults

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultRandomBytes is the number of random bytes Random uses when n <= 0.
const DefaultRandomBytes = 10

// UUID returns a random (version 4) UUID string.
func UUID() string {
	return uuid.NewString()
}

// Random returns n random bytes hex-encoded, so the result has 2n characters.
func Random(n int) (string, error) {
	if n <= 0 {
		n = DefaultRandomBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RandomFunc returns a generator of Random(n) values. Each call yields a new
// value.
func RandomFunc(n int) func() (string, error) {
	return func() (string, error) {
		return Random(n)
	}
}

// Timestamp returns the current time in milliseconds since the Unix epoch.
func Timestamp() int64 {
	return time.Now().UnixMilli()
}
