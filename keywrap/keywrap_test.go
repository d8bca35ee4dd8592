package keywrap

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/twofish"
)

func decodeHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func createBlocks(t *testing.T, n int) []cipher.Block {
	blocks := make([]cipher.Block, n)
	for i := range blocks {
		key := make([]byte, 32)
		key[0] = byte(i + 1)
		var err error
		if i%2 == 0 {
			blocks[i], err = aes.NewCipher(key)
		} else {
			blocks[i], err = twofish.NewCipher(key)
		}
		require.NoError(t, err)
	}
	return blocks
}

func TestRFC5649Vectors(t *testing.T) {
	kek, err := aes.NewCipher(decodeHex(t, "5840df6e29b02af1ab493b705bf16ea1ae8338f4dcc176a8"))
	require.NoError(t, err)

	vectors := []struct{ key, wrapped string }{
		{"c37b7e6492584340bed12207808941155068f738",
			"138bdeaa9b8fa7fc61f97742e72248ee5ae6ae5360d1ae6a5f54f373fa543b6a"},
		{"466f7250617369", "afbeb0f07dfbf5419200f2ccb50bb24f"},
	}
	for _, v := range vectors {
		w, err := Wrap(kek, decodeHex(t, v.key))
		require.NoError(t, err)
		require.Equal(t, v.wrapped, hex.EncodeToString(w))

		u, err := Unwrap(kek, w)
		require.NoError(t, err)
		require.Equal(t, v.key, hex.EncodeToString(u))
	}
}

func TestWrapRoundTripAllLengths(t *testing.T) {
	kek := createBlocks(t, 1)[0]
	for n := 0; n <= 70; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 7)
		}
		w, err := Wrap(kek, data)
		require.NoError(t, err)
		require.Equal(t, WrapLength(n), len(w))

		u, err := Unwrap(kek, w)
		require.NoError(t, err)
		require.Equal(t, data, u)
	}
}

func TestUnwrapTamper(t *testing.T) {
	kek := createBlocks(t, 1)[0]
	for _, n := range []int{0, 5, 8, 24, 33} {
		w, err := Wrap(kek, make([]byte, n))
		require.NoError(t, err)
		for i := range w {
			bad := append([]byte(nil), w...)
			bad[i] ^= 0x10
			_, err := Unwrap(kek, bad)
			require.True(t, errors.Is(err, ErrIntegrity), "length %d byte %d", n, i)
		}
	}
}

func TestUnwrapInvalidLength(t *testing.T) {
	kek := createBlocks(t, 1)[0]
	for _, n := range []int{0, 8, 15, 17} {
		_, err := Unwrap(kek, make([]byte, n))
		require.True(t, errors.Is(err, ErrInvalidLength))
	}
}

func TestOnionWrap(t *testing.T) {
	blocks := createBlocks(t, 4)
	reversed := []cipher.Block{blocks[3], blocks[2], blocks[1], blocks[0]}
	w := KWP{}
	for _, n := range []int{0, 1, 16, 100} {
		data := make([]byte, n)
		wrapped, err := w.Wrap(blocks, data)
		require.NoError(t, err)
		require.Equal(t, w.WrapLength(4, n), len(wrapped))

		unwrapped, err := w.Unwrap(reversed, wrapped, 0)
		require.NoError(t, err)
		require.Equal(t, data, unwrapped)

		// same layers, wrong order
		_, err = w.Unwrap(blocks, wrapped, 0)
		require.True(t, errors.Is(err, ErrIntegrity))
	}
}

func TestOnionUnwrapOffset(t *testing.T) {
	blocks := createBlocks(t, 2)
	w := KWP{}
	wrapped, err := w.Wrap(blocks, []byte("offset payload"))
	require.NoError(t, err)

	prefixed := append([]byte("header"), wrapped...)
	unwrapped, err := w.Unwrap([]cipher.Block{blocks[1], blocks[0]}, prefixed, 6)
	require.NoError(t, err)
	require.Equal(t, []byte("offset payload"), unwrapped)

	_, err = w.Unwrap(blocks, prefixed, 100)
	require.True(t, errors.Is(err, ErrInvalidLength))
}

func TestWrapLength(t *testing.T) {
	require.Equal(t, 16, WrapLength(0))
	require.Equal(t, 16, WrapLength(8))
	require.Equal(t, 24, WrapLength(9))
	require.Equal(t, 24, KWP{}.WrapLength(2, 0))
	require.Equal(t, 32, KWP{}.WrapLength(2, 9))
	require.Equal(t, 7, KWP{}.WrapLength(0, 7))
}
