package primitive

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"github.com/Picocrypt/serpent"
	"github.com/RyuaNerin/go-krypto/aria"
	"github.com/RyuaNerin/go-krypto/lea"
	"github.com/cockroachdb/errors"
	"github.com/dgryski/go-camellia"
	"github.com/emmansun/gmsm/sm4"
	"golang.org/x/crypto/twofish"
)

// Algorithm identifies a block cipher algorithm by a stable ordinal. The
// ordinal is what travels in recipe headers and serialized key sets.
type Algorithm uint8

const (
	AES Algorithm = iota
	Twofish
	Serpent
	Camellia
	ARIA
	LEA
	SM4

	numAlgorithms
)

// BlockSize is the block size (in bytes) shared by every algorithm.
const BlockSize = 16

type algorithmInfo struct {
	name       string
	keyLengths []int
	newBlock   func(key []byte) (cipher.Block, error)
}

var algorithms = [numAlgorithms]algorithmInfo{
	AES: {"AES", []int{128, 192, 256}, aes.NewCipher},
	Twofish: {"Twofish", []int{128, 192, 256}, func(key []byte) (cipher.Block, error) {
		return twofish.NewCipher(key)
	}},
	Serpent:  {"Serpent", []int{128, 192, 256}, serpent.NewCipher},
	Camellia: {"Camellia", []int{128, 192, 256}, camellia.New},
	ARIA:     {"ARIA", []int{128, 192, 256}, aria.NewCipher},
	LEA:      {"LEA", []int{128, 192, 256}, lea.NewCipher},
	SM4:      {"SM4", []int{128}, sm4.NewCipher},
}

// Algorithms returns every known algorithm in ordinal order.
func Algorithms() []Algorithm {
	all := make([]Algorithm, numAlgorithms)
	for i := range all {
		all[i] = Algorithm(i)
	}
	return all
}

// Valid reports whether a is a known ordinal.
func (a Algorithm) Valid() bool {
	return a < numAlgorithms
}

// SupportsKeyLength reports whether a takes keys of keyLength bits.
func (a Algorithm) SupportsKeyLength(keyLength int) bool {
	if !a.Valid() {
		return false
	}
	for _, l := range algorithms[a].keyLengths {
		if l == keyLength {
			return true
		}
	}
	return false
}

func (a Algorithm) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
	return algorithms[a].name
}

// ParseAlgorithm is the inverse of Algorithm.String, case-insensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	for i, info := range algorithms {
		if strings.EqualFold(info.name, name) {
			return Algorithm(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
}
