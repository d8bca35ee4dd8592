package primitive

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3/xof/blake2xb"
)

func TestSupportedAlgorithms(t *testing.T) {
	f := NewFactory()
	require.Len(t, f.SupportedAlgorithms(128, false), 7)
	require.Len(t, f.SupportedAlgorithms(192, true), 6)
	require.Len(t, f.SupportedAlgorithms(256, true), 6)
	require.Empty(t, f.SupportedAlgorithms(64, false))

	require.False(t, f.IsAlgorithmSupported(SM4, 256))
	require.True(t, f.IsAlgorithmSupported(SM4, 128))
	require.False(t, f.IsAlgorithmSupported(Algorithm(200), 128))
}

func TestRestrict(t *testing.T) {
	f := NewFactory().Restrict(AES, Serpent)
	require.Equal(t, []Algorithm{AES, Serpent}, f.SupportedAlgorithms(256, false))

	_, err := f.NewBlock(Twofish, make([]byte, 16))
	require.True(t, errors.Is(err, ErrUnknownAlgorithm))
}

func TestNewBlockKeyLength(t *testing.T) {
	f := NewFactory()
	for _, alg := range Algorithms() {
		for _, keyLength := range []int{128, 192, 256} {
			block, err := f.NewBlock(alg, make([]byte, keyLength/8))
			if alg.SupportsKeyLength(keyLength) {
				require.NoError(t, err, "%v/%d", alg, keyLength)
				require.Equal(t, BlockSize, block.BlockSize())
			} else {
				require.True(t, errors.Is(err, ErrUnsupportedKeyLength))
			}
		}
	}
}

func TestKeyGenerator(t *testing.T) {
	f := NewFactory()
	g, err := f.KeyGenerator(Camellia, 192)
	require.NoError(t, err)
	require.Equal(t, 192, g.KeyLength())

	k1 := g.GenerateKey(blake2xb.New([]byte("seed")))
	k2 := g.GenerateKey(blake2xb.New([]byte("seed")))
	require.Len(t, k1, 24)
	require.Equal(t, k1, k2)

	_, err = f.KeyGenerator(SM4, 192)
	require.True(t, errors.Is(err, ErrUnsupportedKeyLength))
}

func TestAlgorithmNames(t *testing.T) {
	for _, alg := range Algorithms() {
		parsed, err := ParseAlgorithm(alg.String())
		require.NoError(t, err)
		require.Equal(t, alg, parsed)
	}
	a, err := ParseAlgorithm("twofish")
	require.NoError(t, err)
	require.Equal(t, Twofish, a)

	_, err = ParseAlgorithm("rot13")
	require.True(t, errors.Is(err, ErrUnknownAlgorithm))
}

func TestDigests(t *testing.T) {
	f := NewFactory()
	sizes := map[Digest]int{SHA256: 32, SHA512: 64, SHA3_256: 32, BLAKE2b256: 32, BLAKE3: 32}
	for _, d := range f.Digests() {
		h, err := f.CreateDigest(d)
		require.NoError(t, err)
		require.Equal(t, sizes[d], h.Size(), d.String())
	}
	_, err := f.CreateDigest(Digest(99))
	require.True(t, errors.Is(err, ErrUnknownDigest))
}

func TestMac(t *testing.T) {
	f := NewFactory()
	key := make([]byte, MacKeySize)
	key[0] = 1
	m1, err := f.CreateMac(key)
	require.NoError(t, err)
	m2, err := f.CreateMac(key)
	require.NoError(t, err)

	_, _ = m1.Write([]byte("hello "))
	_, _ = m1.Write([]byte("world"))
	_, _ = m2.Write([]byte("hello world"))
	require.Equal(t, m1.Sum(nil), m2.Sum(nil))
	require.Len(t, m1.Sum(nil), MacSize)

	_, err = f.CreateMac(make([]byte, 16))
	require.Error(t, err)
}
