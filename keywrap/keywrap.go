// Package keywrap implements integrity-checked key wrapping with padding
// (RFC 5649 style) over any 128-bit block cipher, and an onion form that
// nests one wrap layer per cipher.
//
// Unlike RFC 5649, an empty input is accepted: it is padded to one
// semiblock like any other short input.
package keywrap

import (
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	// Length (in bytes) of a semiblock
	semiblock = 8

	// Length (in bytes) added by one wrap layer
	Overhead = semiblock
)

// alternative initial value, first half of the integrity check
var aivPrefix = [4]byte{0xA6, 0x59, 0x59, 0xA6}

var (
	// ErrIntegrity is returned when an unwrapped value fails its integrity check
	ErrIntegrity = errors.New("key unwrap integrity check failed")

	// ErrInvalidLength is returned for wrapped inputs that no wrap could have produced
	ErrInvalidLength = errors.New("invalid wrapped length")

	// ErrBlockSize is returned for ciphers without a 16-byte block
	ErrBlockSize = errors.New("key wrap needs a 128-bit block cipher")
)

// Wrapper nests wrap layers. Wrap applies blocks[0] first; Unwrap peels
// blocks[0] first, so a caller unwraps with the blocks it wrapped with in
// reverse order.
type Wrapper interface {
	Wrap(blocks []cipher.Block, data []byte) ([]byte, error)
	Unwrap(blocks []cipher.Block, data []byte, offset int) ([]byte, error)
	WrapLength(layers int, dataLength int) int
}

// KWP is the default Wrapper.
type KWP struct{}

func (KWP) Wrap(blocks []cipher.Block, data []byte) ([]byte, error) {
	out := data
	for _, b := range blocks {
		w, err := Wrap(b, out)
		if err != nil {
			return nil, err
		}
		out = w
	}
	if len(blocks) == 0 {
		out = append([]byte(nil), data...)
	}
	return out, nil
}

func (KWP) Unwrap(blocks []cipher.Block, data []byte, offset int) ([]byte, error) {
	if offset < 0 || offset > len(data) {
		return nil, errors.Wrapf(ErrInvalidLength, "offset %d outside of %d bytes", offset, len(data))
	}
	out := data[offset:]
	for _, b := range blocks {
		u, err := Unwrap(b, out)
		if err != nil {
			return nil, err
		}
		out = u
	}
	if len(blocks) == 0 {
		out = append([]byte(nil), out...)
	}
	return out, nil
}

func (KWP) WrapLength(layers int, dataLength int) int {
	for i := 0; i < layers; i++ {
		dataLength = WrapLength(dataLength)
	}
	return dataLength
}

// WrapLength is the exact length of one wrap layer over n bytes.
func WrapLength(n int) int {
	if n == 0 {
		n = 1
	}
	return (n+semiblock-1)/semiblock*semiblock + Overhead
}

// Wrap wraps data under kek.
func Wrap(kek cipher.Block, data []byte) ([]byte, error) {
	if kek.BlockSize() != 2*semiblock {
		return nil, ErrBlockSize
	}
	out := make([]byte, WrapLength(len(data)))
	copy(out[:4], aivPrefix[:])
	binary.BigEndian.PutUint32(out[4:8], uint32(len(data)))
	copy(out[semiblock:], data)

	if len(out) == 2*semiblock {
		kek.Encrypt(out, out)
		return out, nil
	}

	n := len(out)/semiblock - 1
	var a, b [2 * semiblock]byte
	copy(a[:semiblock], out[:semiblock])
	for j := 0; j < 6; j++ {
		for i := 1; i <= n; i++ {
			r := out[i*semiblock : (i+1)*semiblock]
			copy(b[semiblock:], r)
			copy(b[:semiblock], a[:semiblock])
			kek.Encrypt(b[:], b[:])
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(a[:semiblock], binary.BigEndian.Uint64(b[:semiblock])^t)
			copy(r, b[semiblock:])
		}
	}
	copy(out[:semiblock], a[:semiblock])
	return out, nil
}

// Unwrap reverses Wrap and verifies the integrity check.
func Unwrap(kek cipher.Block, wrapped []byte) ([]byte, error) {
	if kek.BlockSize() != 2*semiblock {
		return nil, ErrBlockSize
	}
	if len(wrapped) < 2*semiblock || len(wrapped)%semiblock != 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "%d bytes", len(wrapped))
	}
	buf := make([]byte, len(wrapped))
	copy(buf, wrapped)

	if len(buf) == 2*semiblock {
		kek.Decrypt(buf, buf)
	} else {
		n := len(buf)/semiblock - 1
		var b [2 * semiblock]byte
		a := binary.BigEndian.Uint64(buf[:semiblock])
		for j := 5; j >= 0; j-- {
			for i := n; i >= 1; i-- {
				r := buf[i*semiblock : (i+1)*semiblock]
				binary.BigEndian.PutUint64(b[:semiblock], a^uint64(n*j+i))
				copy(b[semiblock:], r)
				kek.Decrypt(b[:], b[:])
				a = binary.BigEndian.Uint64(b[:semiblock])
				copy(r, b[semiblock:])
			}
		}
		binary.BigEndian.PutUint64(buf[:semiblock], a)
	}

	payload := buf[semiblock:]
	mli := int(binary.BigEndian.Uint32(buf[4:8]))
	ok := subtle.ConstantTimeCompare(buf[:4], aivPrefix[:])
	if mli > len(payload) || WrapLength(mli) != len(buf) {
		ok = 0
	} else {
		var pad byte
		for _, p := range payload[mli:] {
			pad |= p
		}
		ok &= subtle.ConstantTimeByteEq(pad, 0)
	}
	if ok != 1 {
		for i := range buf {
			buf[i] = 0
		}
		return nil, ErrIntegrity
	}
	return payload[:mli], nil
}
