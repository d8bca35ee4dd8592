package primitive

import (
	"crypto/cipher"
	"hash"

	"github.com/cockroachdb/errors"
	"go.dedis.ch/kyber/v3/util/random"
)

// CipherFactory builds keyed block ciphers and mode ciphers.
type CipherFactory interface {
	NewBlock(alg Algorithm, key []byte) (cipher.Block, error)
	CreateSymKeyCipher(alg Algorithm, mode Mode, key []byte) (Cipher, error)
	KeyGenerator(alg Algorithm, keyLength int) (KeyGenerator, error)
}

// DigestFactory builds digests.
type DigestFactory interface {
	CreateDigest(d Digest) (hash.Hash, error)
	Digests() []Digest
}

// MacFactory builds one-time authenticators.
type MacFactory interface {
	CreateMac(key []byte) (Mac, error)
}

// Validator answers which algorithms are usable at a key length.
type Validator interface {
	IsAlgorithmSupported(alg Algorithm, keyLength int) bool
	SupportedAlgorithms(keyLength int, aead bool) []Algorithm
}

// KeyGenerator draws keys for one algorithm and key length.
type KeyGenerator interface {
	GenerateKey(rand cipher.Stream) []byte
	KeyLength() int
}

type keyGenerator struct {
	keyLength int
}

func (g keyGenerator) GenerateKey(rand cipher.Stream) []byte {
	key := make([]byte, g.keyLength/8)
	random.Bytes(key, rand)
	return key
}

func (g keyGenerator) KeyLength() int { return g.keyLength }

// Factory is the default implementation of every collaborator interface of
// this package. The zero value is not usable, use NewFactory.
type Factory struct {
	enabled [numAlgorithms]bool
}

// NewFactory returns a factory offering every known algorithm.
func NewFactory() *Factory {
	f := &Factory{}
	for i := range f.enabled {
		f.enabled[i] = true
	}
	return f
}

// Restrict returns a copy of f offering only algs.
func (f *Factory) Restrict(algs ...Algorithm) *Factory {
	r := &Factory{}
	for _, a := range algs {
		if a.Valid() && f.enabled[a] {
			r.enabled[a] = true
		}
	}
	return r
}

func (f *Factory) lookup(alg Algorithm) (*algorithmInfo, error) {
	if !alg.Valid() || !f.enabled[alg] {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%v", alg)
	}
	return &algorithms[alg], nil
}

func (f *Factory) NewBlock(alg Algorithm, key []byte) (cipher.Block, error) {
	info, err := f.lookup(alg)
	if err != nil {
		return nil, err
	}
	if !alg.SupportsKeyLength(len(key) * 8) {
		return nil, errors.Wrapf(ErrUnsupportedKeyLength, "%v with %d-bit key", alg, len(key)*8)
	}
	block, err := info.newBlock(key)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %v", alg)
	}
	if block.BlockSize() != BlockSize {
		return nil, errors.Newf("%v has a %d-byte block", alg, block.BlockSize())
	}
	return block, nil
}

func (f *Factory) CreateSymKeyCipher(alg Algorithm, mode Mode, key []byte) (Cipher, error) {
	block, err := f.NewBlock(alg, key)
	if err != nil {
		return nil, err
	}
	return NewCipher(block, mode)
}

// NewCipher wraps an already keyed block in the given mode.
func NewCipher(block cipher.Block, mode Mode) (Cipher, error) {
	switch mode {
	case ModeStream:
		return newStreamCipher(block), nil
	case ModePadded:
		return newBlockCipher(block, true), nil
	case ModeUnpadded:
		return newBlockCipher(block, false), nil
	}
	return nil, errors.Newf("unknown mode %v", mode)
}

func (f *Factory) KeyGenerator(alg Algorithm, keyLength int) (KeyGenerator, error) {
	if _, err := f.lookup(alg); err != nil {
		return nil, err
	}
	if !alg.SupportsKeyLength(keyLength) {
		return nil, errors.Wrapf(ErrUnsupportedKeyLength, "%v with %d-bit key", alg, keyLength)
	}
	return keyGenerator{keyLength: keyLength}, nil
}

func (f *Factory) CreateDigest(d Digest) (hash.Hash, error) {
	return newDigest(d)
}

func (f *Factory) Digests() []Digest {
	return Digests()
}

func (f *Factory) CreateMac(key []byte) (Mac, error) {
	return newPoly1305(key)
}

func (f *Factory) IsAlgorithmSupported(alg Algorithm, keyLength int) bool {
	return alg.Valid() && f.enabled[alg] && alg.SupportsKeyLength(keyLength)
}

// SupportedAlgorithms lists, in ordinal order, the algorithms usable at
// keyLength. Every algorithm has a 128-bit block, so all of them qualify for
// authenticated use.
func (f *Factory) SupportedAlgorithms(keyLength int, aead bool) []Algorithm {
	var algs []Algorithm
	for _, a := range Algorithms() {
		if f.IsAlgorithmSupported(a, keyLength) {
			algs = append(algs, a)
		}
	}
	return algs
}
