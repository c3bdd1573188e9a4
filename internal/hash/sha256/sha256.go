// Package sha256 provides SHA-256 digests for cache names and output comparison.
package sha256

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes SHA-256 digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Short returns the first n hex characters of the digest of s.
func (h *Hasher) Short(s string, n int) string {
	digest := h.Hash([]byte(s))
	if n <= 0 || n > len(digest) {
		return digest
	}
	return digest[:n]
}

// Equal reports whether a and b have the same digest.
func (h *Hasher) Equal(a, b []byte) bool {
	sa := sha256.Sum256(a)
	sb := sha256.Sum256(b)
	return bytes.Equal(sa[:], sb[:])
}
