// Package checksum hashes transfer streams as they pass through, so
// uploads and downloads can be verified without a second read.
package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Algorithm represents the hashing algorithm to use
type Algorithm string

const (
	// MD5 matches the ETag of single-part S3 objects and Drive's md5Checksum
	MD5 Algorithm = "md5"
	// SHA256 is the default
	SHA256 Algorithm = "sha256"
)

// ErrMismatch is returned by Verify when digests differ
var ErrMismatch = errors.New("checksum mismatch")

// ParseAlgorithm parses an algorithm name (case-insensitive)
func ParseAlgorithm(s string) (Algorithm, error) {
	algo := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if !IsSupported(algo) {
		return "", fmt.Errorf("unsupported algorithm: %s", s)
	}
	return algo, nil
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	switch algo {
	case MD5, SHA256:
		return true
	default:
		return false
	}
}

// Hasher is an io.Writer accumulating a digest of everything written
type Hasher struct {
	algo Algorithm
	h    hash.Hash
	n    int64
}

// New creates a hasher for algo
func New(algo Algorithm) (*Hasher, error) {
	var h hash.Hash
	switch algo {
	case MD5:
		h = md5.New()
	case SHA256:
		h = sha256.New()
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", algo)
	}
	return &Hasher{algo: algo, h: h}, nil
}

// Write implements io.Writer
func (h *Hasher) Write(p []byte) (int, error) {
	n, err := h.h.Write(p)
	h.n += int64(n)
	return n, err
}

// Sum returns the hex-encoded digest of the data written so far
func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// Size returns the number of bytes hashed
func (h *Hasher) Size() int64 {
	return h.n
}

// Algorithm returns the hash algorithm
func (h *Hasher) Algorithm() Algorithm {
	return h.algo
}

// String formats the digest as "algo:hex"
func (h *Hasher) String() string {
	return string(h.algo) + ":" + h.Sum()
}

// Verify compares the digest with an expected hex string
func (h *Hasher) Verify(expected string) error {
	got := h.Sum()
	if !strings.EqualFold(got, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: %s got %s, want %s", ErrMismatch, h.algo, got, expected)
	}
	return nil
}

// TeeWriter returns a writer that copies into w and the returned hasher
func TeeWriter(w io.Writer, algo Algorithm) (io.Writer, *Hasher, error) {
	h, err := New(algo)
	if err != nil {
		return nil, nil, err
	}
	return io.MultiWriter(w, h), h, nil
}

// TeeReader returns a reader that hashes everything read from r
func TeeReader(r io.Reader, algo Algorithm) (io.Reader, *Hasher, error) {
	h, err := New(algo)
	if err != nil {
		return nil, nil, err
	}
	return io.TeeReader(r, h), h, nil
}
