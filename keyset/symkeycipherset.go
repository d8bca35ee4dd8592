package keyset

import (
	"crypto/cipher"

	"multicipher/primitive"
)

// SymKeyCipherSet holds one algorithm's key together with the block cipher
// and the three mode ciphers built from it. The mode ciphers are stateful, so
// a set belongs to exactly one MultiCipher.
type SymKeyCipherSet struct {
	Algorithm primitive.Algorithm
	Key       []byte

	Block    cipher.Block
	Stream   primitive.Cipher
	Padded   primitive.Cipher
	Unpadded primitive.Cipher
}

func newSymKeyCipherSet(factory primitive.CipherFactory, alg primitive.Algorithm, key []byte) (*SymKeyCipherSet, error) {
	block, err := factory.NewBlock(alg, key)
	if err != nil {
		return nil, err
	}
	s := &SymKeyCipherSet{Algorithm: alg, Key: key, Block: block}
	if s.Stream, err = factory.CreateSymKeyCipher(alg, primitive.ModeStream, key); err != nil {
		return nil, err
	}
	if s.Padded, err = factory.CreateSymKeyCipher(alg, primitive.ModePadded, key); err != nil {
		return nil, err
	}
	if s.Unpadded, err = factory.CreateSymKeyCipher(alg, primitive.ModeUnpadded, key); err != nil {
		return nil, err
	}
	return s, nil
}

// CipherFor returns the cipher running stage i of an n-stage pipeline.
func (s *SymKeyCipherSet) CipherFor(i, n int) primitive.Cipher {
	switch primitive.ModeFor(i, n) {
	case primitive.ModeStream:
		return s.Stream
	case primitive.ModePadded:
		return s.Padded
	}
	return s.Unpadded
}
