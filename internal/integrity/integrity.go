// Package integrity computes and checks content digests of cached files.
//
// Digests are XXH3 128-bit values rendered as 32 lowercase hex characters in
// canonical (big-endian) order, the same text the registry stores.
package integrity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/xxh3"

	"github.com/seareport/seadata/internal/seatype"
)

// ChunkSize is the read size used when streaming a file through the hasher.
const ChunkSize = 1 << 20

// Hasher wraps an XXH3-128 state behind hash.Hash.
type Hasher struct {
	h *xxh3.Hasher
}

var _ hash.Hash = (*Hasher)(nil)

// New returns an empty XXH3-128 hasher.
func New() *Hasher {
	return &Hasher{h: xxh3.New()}
}

// Write implements io.Writer.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum appends the canonical 16-byte digest to b.
func (h *Hasher) Sum(b []byte) []byte {
	sum := h.h.Sum128().Bytes()
	return append(b, sum[:]...)
}

// Reset clears the hasher state.
func (h *Hasher) Reset() { h.h.Reset() }

// Size returns the digest length in bytes.
func (h *Hasher) Size() int { return 16 }

// BlockSize returns the hasher's preferred block size.
func (h *Hasher) BlockSize() int { return 64 }

// HexDigest returns the digest as lowercase hex.
func (h *Hasher) HexDigest() string {
	return hex.EncodeToString(h.Sum(nil))
}

// HashingReader wraps an io.Reader and computes a hash of all data read.
type HashingReader struct {
	r io.Reader
	h hash.Hash
}

// NewHashingReader creates a reader that computes a hash while reading.
func NewHashingReader(r io.Reader, h hash.Hash) *HashingReader {
	return &HashingReader{r: r, h: h}
}

// Read implements io.Reader.
func (hr *HashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		_, _ = hr.h.Write(p[:n]) //nolint:errcheck // hash writes never fail
	}
	return n, err
}

// Sum returns the hash sum computed so far.
func (hr *HashingReader) Sum() []byte {
	return hr.h.Sum(nil)
}

// HashReader streams r in ChunkSize reads and returns its hex digest.
func HashReader(r io.Reader) (string, error) {
	h := New()
	hr := NewHashingReader(r, h)
	buf := make([]byte, ChunkSize)
	for {
		_, err := hr.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hr.Sum()), nil
}

// HashFile returns the hex digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the cache resolver
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	sum, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}

// Check hashes the file at path and compares it with expected.
// The file is never removed on mismatch.
func Check(path, expected string) error {
	actual, err := HashFile(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return &seatype.HashMismatchError{Path: path, Actual: actual, Expected: expected}
	}
	return nil
}
