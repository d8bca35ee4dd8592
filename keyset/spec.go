package keyset

import (
	"fmt"

	"multicipher/primitive"
)

const (
	// Length (in bytes) of the random seed opening every header
	SeedLength = 16

	// Length (in bytes) of the keyed check closing every header
	CheckLength = 8

	// Length (in bytes) of one IV section
	IVSectionLength = primitive.BlockSize

	// Length (in bytes) of the encrypted MAC tag trailing an authenticated message
	MacLength = primitive.MacSize

	// Minimum length (in bytes) of a secret for BuildFromSecret
	MinSecretLength = 32
)

// Spec fixes the shape of a key set.
type Spec struct {
	// key length in bits, one of 128, 192, 256
	KeyLength int `yaml:"keyLength"`
	// number of chained ciphers, at least 2
	CipherSteps int `yaml:"cipherSteps"`
}

// Validate checks the key length and step count.
func (s Spec) Validate() error {
	switch s.KeyLength {
	case 128, 192, 256:
	default:
		return dataErrorf(ErrInvalidSpec, "key length %d", s.KeyLength)
	}
	if s.CipherSteps < 2 {
		return dataErrorf(ErrInvalidSpec, "%d cipher steps", s.CipherSteps)
	}
	if s.CipherSteps > 255 {
		return dataErrorf(ErrInvalidSpec, "%d cipher steps", s.CipherSteps)
	}
	return nil
}

// HeaderLength is the fixed length of the recipe header:
//
//	seed[16] | masked(algorithms[steps] | digest | carrier) | check[8]
func (s Spec) HeaderLength() int {
	return SeedLength + s.bodyLength() + CheckLength
}

func (s Spec) bodyLength() int {
	return s.CipherSteps + 2
}

// IVLength is the amount of IV material derived for one operation: two
// sections for the outer stream ciphers, two for the Poly1305 key, the rest
// is spare.
func (s Spec) IVLength() int {
	return (s.CipherSteps + 2) * IVSectionLength
}

func (s Spec) String() string {
	return fmt.Sprintf("%d x %d-bit", s.CipherSteps, s.KeyLength)
}
