package keyset

import (
	"github.com/cockroachdb/errors"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/util/key"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"multicipher/primitive"
)

// Version of the key set encoding
const keySetVersion = 1

// SymmetricKey is a single algorithm key travelling outside of a key set.
type SymmetricKey struct {
	Algorithm primitive.Algorithm
	Key       []byte
}

/*
 Encodings, DER:

 SymmetricKey ::= SEQUENCE {
     algorithm   INTEGER,
     key         OCTET STRING }

 KeySet ::= SEQUENCE {
     version     INTEGER (1),
     keyLength   INTEGER,
     cipherSteps INTEGER,
     keys        SEQUENCE OF SymmetricKey }
*/

func addSymmetricKey(b *cryptobyte.Builder, alg primitive.Algorithm, k []byte) {
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(int64(alg))
		b.AddASN1OctetString(k)
	})
}

func readSymmetricKey(s *cryptobyte.String) (SymmetricKey, bool) {
	var seq cryptobyte.String
	var alg int64
	var k []byte
	if !s.ReadASN1(&seq, asn1.SEQUENCE) ||
		!seq.ReadASN1Integer(&alg) ||
		!seq.ReadASN1Bytes(&k, asn1.OCTET_STRING) ||
		!seq.Empty() || alg < 0 || alg > 255 {
		return SymmetricKey{}, false
	}
	return SymmetricKey{Algorithm: primitive.Algorithm(alg), Key: k}, true
}

func marshalSymmetricKey(k SymmetricKey) ([]byte, error) {
	var b cryptobyte.Builder
	addSymmetricKey(&b, k.Algorithm, k.Key)
	out, err := b.Bytes()
	if err != nil {
		return nil, ioError(err, "encoding symmetric key")
	}
	return out, nil
}

func unmarshalSymmetricKey(data []byte) (SymmetricKey, error) {
	s := cryptobyte.String(data)
	k, ok := readSymmetricKey(&s)
	if !ok || !s.Empty() {
		return SymmetricKey{}, ioError(errors.New("malformed SymmetricKey"), "decoding symmetric key")
	}
	return k, nil
}

// MarshalBinary encodes the spec and every key of ks.
func (ks *KeySet) MarshalBinary() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(keySetVersion)
		b.AddASN1Int64(int64(ks.spec.KeyLength))
		b.AddASN1Int64(int64(ks.spec.CipherSteps))
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			for _, alg := range ks.Algorithms() {
				addSymmetricKey(b, alg, ks.keys[alg])
			}
		})
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, ioError(err, "encoding key set")
	}
	return out, nil
}

// Unmarshal decodes a key set encoded by MarshalBinary.
func Unmarshal(data []byte, factory Factory) (*KeySet, error) {
	s := cryptobyte.String(data)
	var seq, keys cryptobyte.String
	var version, keyLength, steps int64
	if !s.ReadASN1(&seq, asn1.SEQUENCE) || !s.Empty() ||
		!seq.ReadASN1Integer(&version) ||
		!seq.ReadASN1Integer(&keyLength) ||
		!seq.ReadASN1Integer(&steps) ||
		!seq.ReadASN1(&keys, asn1.SEQUENCE) || !seq.Empty() {
		return nil, ioError(errors.New("malformed KeySet"), "decoding key set")
	}
	if version != keySetVersion {
		return nil, ioError(errors.Newf("version %d", version), "decoding key set")
	}
	ks, err := New(Spec{KeyLength: int(keyLength), CipherSteps: int(steps)}, factory)
	if err != nil {
		return nil, err
	}
	for !keys.Empty() {
		k, ok := readSymmetricKey(&keys)
		if !ok {
			return nil, ioError(errors.New("malformed SymmetricKey"), "decoding key set")
		}
		if err := ks.DeclareKey(k.Algorithm, append([]byte(nil), k.Key...)); err != nil {
			return nil, err
		}
	}
	if err := ks.checkPopulated(); err != nil {
		return nil, dataErrorf(ErrInvalidSpec, "%d keys for %v", len(ks.keys), ks.spec)
	}
	return ks, nil
}

// SecureKey wraps a single algorithm key.
func (ks *KeySet) SecureKey(k SymmetricKey) ([]byte, error) {
	data, err := marshalSymmetricKey(k)
	if err != nil {
		return nil, err
	}
	defer wipe(data)
	return ks.SecureBytes(data)
}

// DeriveKey unwraps a key wrapped by SecureKey.
func (ks *KeySet) DeriveKey(blob []byte) (SymmetricKey, error) {
	data, err := ks.DeriveBytes(blob)
	if err != nil {
		return SymmetricKey{}, err
	}
	k, err := unmarshalSymmetricKey(data)
	if err != nil {
		return SymmetricKey{}, err
	}
	k.Key = append([]byte(nil), k.Key...)
	wipe(data)
	return k, nil
}

// SecurePrivateKey wraps the private half of a key pair.
func (ks *KeySet) SecurePrivateKey(pair *key.Pair) ([]byte, error) {
	data, err := pair.Private.MarshalBinary()
	if err != nil {
		return nil, ioError(err, "encoding private key")
	}
	defer wipe(data)
	return ks.SecureBytes(data)
}

// DerivePrivateKey unwraps a private key of group and recomputes its public
// half.
func (ks *KeySet) DerivePrivateKey(group kyber.Group, blob []byte) (*key.Pair, error) {
	data, err := ks.DeriveBytes(blob)
	if err != nil {
		return nil, err
	}
	defer wipe(data)
	private := group.Scalar()
	if err := private.UnmarshalBinary(data); err != nil {
		return nil, ioError(err, "decoding private key")
	}
	return &key.Pair{Private: private, Public: group.Point().Mul(private, nil)}, nil
}

// SecureKeySet wraps the encoding of another key set.
func (ks *KeySet) SecureKeySet(other *KeySet) ([]byte, error) {
	data, err := other.MarshalBinary()
	if err != nil {
		return nil, err
	}
	defer wipe(data)
	return ks.SecureBytes(data)
}

// DeriveKeySet unwraps a key set wrapped by SecureKeySet. The result uses
// the factory of ks.
func (ks *KeySet) DeriveKeySet(blob []byte) (*KeySet, error) {
	data, err := ks.DeriveBytes(blob)
	if err != nil {
		return nil, err
	}
	defer wipe(data)
	return Unmarshal(data, ks.factory)
}

// derSize is the length of a DER element with content bytes of content.
func derSize(content int) int {
	n := 2 + content
	if content >= 0x80 {
		for l := content; l > 0; l >>= 8 {
			n++
		}
	}
	return n
}

// derIntSize is the length of a DER INTEGER holding a non-negative v.
func derIntSize(v int64) int {
	content := 1
	for ; v >= 0x80; v >>= 8 {
		content++
	}
	return derSize(content)
}

// encodingLength is the exact length of MarshalBinary(ks).
func (ks *KeySet) encodingLength() int {
	keys := 0
	for alg, k := range ks.keys {
		keys += derSize(derIntSize(int64(alg)) + derSize(len(k)))
	}
	return derSize(derIntSize(keySetVersion) +
		derIntSize(int64(ks.spec.KeyLength)) +
		derIntSize(int64(ks.spec.CipherSteps)) +
		derSize(keys))
}

// KeySetWrapLength is the exact length of SecureKeySet(ks).
func (ks *KeySet) KeySetWrapLength() int {
	return ks.WrapLength(ks.encodingLength())
}
