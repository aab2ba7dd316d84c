package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256  HashAlgorithm = "sha256"
	BLAKE2b HashAlgorithm = "blake2b"
)

// ParseHashAlgorithm maps a user-supplied name to an algorithm.
// Empty selects SHA256.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch HashAlgorithm(name) {
	case "", SHA256:
		return SHA256, nil
	case BLAKE2b:
		return BLAKE2b, nil
	}
	return "", fmt.Errorf("unsupported hash algorithm: %s", name)
}

// Hasher computes hex digests of byte streams
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a SHA256 hasher
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Algorithm reports the hasher's algorithm
func (h *Hasher) Algorithm() HashAlgorithm {
	return h.algorithm
}

func (h *Hasher) newHash() hash.Hash {
	if h.algorithm == BLAKE2b {
		// New256 only fails for oversized keys
		d, _ := blake2b.New256(nil)
		return d
	}
	return sha256.New()
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	d := h.newHash()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// HashReader streams r through the digest
func (h *Hasher) HashReader(r io.Reader) (string, error) {
	d := h.newHash()
	if _, err := io.Copy(d, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

// HashFile hashes the contents of the file at path
func (h *Hasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.HashReader(f)
}
