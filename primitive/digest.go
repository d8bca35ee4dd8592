package primitive

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Digest identifies a hash function by a stable ordinal.
type Digest uint8

const (
	SHA256 Digest = iota
	SHA512
	SHA3_256
	BLAKE2b256
	BLAKE3

	numDigests
)

var digestNames = [numDigests]string{"SHA-256", "SHA-512", "SHA3-256", "BLAKE2b-256", "BLAKE3"}

// Digests returns every known digest in ordinal order.
func Digests() []Digest {
	all := make([]Digest, numDigests)
	for i := range all {
		all[i] = Digest(i)
	}
	return all
}

func (d Digest) Valid() bool {
	return d < numDigests
}

func (d Digest) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Digest(%d)", uint8(d))
	}
	return digestNames[d]
}

func newDigest(d Digest) (hash.Hash, error) {
	switch d {
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case SHA3_256:
		return sha3.New256(), nil
	case BLAKE2b256:
		return blake2b.New256(nil)
	case BLAKE3:
		return blake3.New(), nil
	}
	return nil, ErrUnknownDigest
}
