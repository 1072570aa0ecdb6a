// Package cache stores finished conversions so repeated formulas skip the
// typesetting engine.
package cache

import (
	"context"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

var ErrClosed = errors.New("cache: store closed")

// Key identifies a conversion: formula text, encoded options and output kind.
type Key [blake2b.Size256]byte

// NewKey hashes the parts with a separator that cannot occur in them.
func NewKey(kind, formula, options string) Key {
	h, _ := blake2b.New256(nil)
	for _, part := range []string{kind, formula, options} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// Entry is a cached conversion result.
type Entry struct {
	SVG    string
	MathML string
}

// Store is implemented by Memory and SQLite.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, entry Entry) error
	Close() error
}
