package primitive

import (
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/poly1305"
)

// MacKeySize is the length of a Poly1305 one-time key
const MacKeySize = 32

// MacSize is the length of a Poly1305 tag
const MacSize = poly1305.TagSize

// Mac is an incremental one-time authenticator.
type Mac interface {
	io.Writer
	Sum(b []byte) []byte
	Size() int
}

func newPoly1305(key []byte) (Mac, error) {
	if len(key) != MacKeySize {
		return nil, errors.Newf("poly1305 key must be %d bytes, got %d", MacKeySize, len(key))
	}
	var k [MacKeySize]byte
	copy(k[:], key)
	return poly1305.New(&k), nil
}
