package keyset

import (
	"crypto/cipher"
	"fmt"
	"sort"
	"strings"

	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/kyber/v3/xof/blake2xb"

	"multicipher"
	"multicipher/keywrap"
	"multicipher/primitive"
)

// Factory bundles the primitive collaborators a KeySet consumes.
type Factory interface {
	primitive.CipherFactory
	primitive.DigestFactory
	primitive.MacFactory
	primitive.Validator
}

// KeySet holds one key per supported algorithm and the MultiCipher built on
// them. A KeySet, and the ciphers it hands out, are not safe for concurrent
// use. Clones are independent of each other.
type KeySet struct {
	spec    Spec
	factory Factory
	wrapper keywrap.Wrapper
	rand    cipher.Stream

	keys      map[primitive.Algorithm][]byte
	recipeKey []byte
	multi     *MultiCipher
}

var _ multicipher.Envelope = (*KeySet)(nil)

// New returns an empty key set. It has to be populated with BuildFromRandom,
// BuildFromSecret or DeclareKey before use.
func New(spec Spec, factory Factory) (*KeySet, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if n := len(factory.SupportedAlgorithms(spec.KeyLength, false)); n < spec.CipherSteps {
		return nil, dataErrorf(ErrInvalidSpec, "%v needs %d algorithms, %d supported",
			spec, spec.CipherSteps, n)
	}
	ks := &KeySet{
		spec:    spec,
		factory: factory,
		wrapper: keywrap.KWP{},
		rand:    random.New(),
		keys:    make(map[primitive.Algorithm][]byte),
	}
	if err := ks.rebuild(); err != nil {
		return nil, err
	}
	return ks, nil
}

// SetRandSource replaces the random stream used for recipes and random keys.
func (ks *KeySet) SetRandSource(rand cipher.Stream) {
	ks.rand = rand
}

// Spec returns the shape of the key set.
func (ks *KeySet) Spec() Spec {
	return ks.spec
}

func (ks *KeySet) rebuild() error {
	m, err := newMultiCipher(ks.spec, ks.factory, ks.wrapper, ks.keys)
	if err != nil {
		return err
	}
	ks.multi = m
	ks.recipeKey = computeRecipeKey(ks.keys)
	return nil
}

// BuildFromRandom draws a fresh key for every supported algorithm.
func (ks *KeySet) BuildFromRandom() error {
	return ks.populate(ks.rand)
}

// BuildFromSecret derives every key from secret. Equal secrets and specs
// give equal key sets.
func (ks *KeySet) BuildFromSecret(secret []byte) error {
	if len(secret) < MinSecretLength {
		return dataErrorf(ErrSecretLength, "%d bytes, need at least %d", len(secret), MinSecretLength)
	}
	return ks.populate(blake2xb.New(secret))
}

func (ks *KeySet) populate(rand cipher.Stream) error {
	if len(ks.keys) > 0 {
		return logicErrorf(ErrAlreadyBuilt, "%d keys present", len(ks.keys))
	}
	for _, alg := range ks.factory.SupportedAlgorithms(ks.spec.KeyLength, false) {
		gen, err := ks.factory.KeyGenerator(alg, ks.spec.KeyLength)
		if err != nil {
			return dataErrorf(ErrUnsupportedKey, "%v: %v", alg, err)
		}
		ks.keys[alg] = gen.GenerateKey(rand)
	}
	if err := ks.rebuild(); err != nil {
		ks.keys = make(map[primitive.Algorithm][]byte)
		return err
	}
	multicipher.Logger.Debug().Msgf("Key set %v populated with %d algorithms", ks.spec, len(ks.keys))
	return nil
}

// DeclareKey adds the key of an algorithm not yet present.
func (ks *KeySet) DeclareKey(alg primitive.Algorithm, key []byte) error {
	if _, ok := ks.keys[alg]; ok {
		return logicErrorf(ErrDuplicateKey, "%v", alg)
	}
	if len(key)*8 != ks.spec.KeyLength || !ks.factory.IsAlgorithmSupported(alg, ks.spec.KeyLength) {
		return dataErrorf(ErrUnsupportedKey, "%v with %d-bit key", alg, len(key)*8)
	}
	if err := ks.multi.addKey(ks.factory, alg, key); err != nil {
		return err
	}
	ks.keys[alg] = key
	ks.recipeKey = computeRecipeKey(ks.keys)
	return nil
}

// Algorithms lists the algorithms holding a key, in ordinal order.
func (ks *KeySet) Algorithms() []primitive.Algorithm {
	algs := make([]primitive.Algorithm, 0, len(ks.keys))
	for a := range ks.keys {
		algs = append(algs, a)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// Key returns the key of alg, if present.
func (ks *KeySet) Key(alg primitive.Algorithm) ([]byte, bool) {
	k, ok := ks.keys[alg]
	return k, ok
}

// Clone returns a key set sharing the keys but owning a fresh MultiCipher.
func (ks *KeySet) Clone() *KeySet {
	c := &KeySet{
		spec:      ks.spec,
		factory:   ks.factory,
		wrapper:   ks.wrapper,
		rand:      random.New(),
		keys:      make(map[primitive.Algorithm][]byte, len(ks.keys)),
		recipeKey: ks.recipeKey,
	}
	for a, k := range ks.keys {
		c.keys[a] = k
	}
	c.multi = ks.newMultiCipher()
	return c
}

// newMultiCipher builds a pipeline over keys that already passed validation.
func (ks *KeySet) newMultiCipher() *MultiCipher {
	m, err := newMultiCipher(ks.spec, ks.factory, ks.wrapper, ks.keys)
	if err != nil {
		panic(err)
	}
	return m
}

func (ks *KeySet) checkPopulated() error {
	if len(ks.keys) < ks.spec.CipherSteps {
		return logicErrorf(ErrEmptyKeySet, "%d keys for %d steps", len(ks.keys), ks.spec.CipherSteps)
	}
	return nil
}

// NewCipher returns a streaming cipher with its own pipeline.
func (ks *KeySet) NewCipher() *KeySetCipher {
	return newKeySetCipher(ks, ks.newMultiCipher(), false)
}

// NewAADCipher returns a streaming authenticated cipher with its own
// pipeline.
func (ks *KeySet) NewAADCipher() *AADCipher {
	return newAADCipher(ks, ks.newMultiCipher())
}

// EncryptionLength is the exact length of Encrypt (or EncryptAAD when aead)
// for dataLength bytes.
func (ks *KeySet) EncryptionLength(dataLength int, aead bool) int {
	n := ks.spec.HeaderLength() + OutputLengthFor(ks.spec.CipherSteps, dataLength, true)
	if aead {
		n += MacLength
	}
	return n
}

// WrapLength is the exact length of SecureBytes for dataLength bytes.
func (ks *KeySet) WrapLength(dataLength int) int {
	return ks.spec.HeaderLength() + ks.multi.WrapLength(dataLength)
}

// Describe is a human readable summary, without key material.
func (ks *KeySet) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "key set %v, header %d bytes\n", ks.spec, ks.spec.HeaderLength())
	for _, a := range ks.Algorithms() {
		fmt.Fprintf(&b, "  %-8v %d-bit key\n", a, len(ks.keys[a])*8)
	}
	return b.String()
}
