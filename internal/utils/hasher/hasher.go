package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Digest returns the hex-encoded SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Reader hashes everything read through it.
type Reader struct {
	r io.Reader
	h hash.Hash
}

func NewReader(r io.Reader) *Reader {
	h := sha256.New()
	return &Reader{r: io.TeeReader(r, h), h: h}
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// Digest is the hex-encoded SHA-256 of the bytes read so far.
func (r *Reader) Digest() string {
	return hex.EncodeToString(r.h.Sum(nil))
}
