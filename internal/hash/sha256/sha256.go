// Package sha256 provides the content digests used for snapshot names and
// opportunity ids.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher digests content with SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data.
func (Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes parts joined by a unit separator, so ("ab","c") and
// ("a","bc") differ.
func Fingerprint(parts ...string) string {
	return New().Hash([]byte(strings.Join(parts, "\x1f")))
}
