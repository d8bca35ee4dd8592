package keyset

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"multicipher/primitive"
)

func TestHeaderLength(t *testing.T) {
	require.Equal(t, 16+2+2+8, Spec{KeyLength: 128, CipherSteps: 2}.HeaderLength())
	require.Equal(t, 16+5+2+8, Spec{KeyLength: 256, CipherSteps: 5}.HeaderLength())
	require.Equal(t, 7*16, Spec{KeyLength: 256, CipherSteps: 5}.IVLength())
}

func TestRecipeRoundTrip(t *testing.T) {
	for steps := 2; steps <= 6; steps++ {
		ks := createKeySet(t, steps, 192)
		for k := 0; k < 20; k++ {
			p, header, err := ks.newRecipe(k%2 == 0)
			require.NoError(t, err)
			require.Len(t, header, ks.spec.HeaderLength())
			require.Len(t, p.IV, ks.spec.IVLength())
			require.Contains(t, p.Algorithms, p.Carrier)

			seen := map[primitive.Algorithm]bool{}
			for _, a := range p.Algorithms {
				require.False(t, seen[a], "%v drawn twice", a)
				seen[a] = true
			}

			parsed, err := ks.parseRecipe(header, k%2 == 0)
			require.NoError(t, err)
			require.Equal(t, p, parsed)
		}
	}
}

func TestRecipeVaries(t *testing.T) {
	ks := createKeySet(t, 3, 256)
	_, h1, err := ks.newRecipe(false)
	require.NoError(t, err)
	_, h2, err := ks.newRecipe(false)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestParseRecipeTamper(t *testing.T) {
	ks := createKeySet(t, 4, 128)
	_, header, err := ks.newRecipe(false)
	require.NoError(t, err)
	for i := range header {
		for bit := 0; bit < 8; bit++ {
			bad := append([]byte(nil), header...)
			bad[i] ^= 1 << bit
			_, err := ks.parseRecipe(bad, false)
			require.True(t, errors.Is(err, ErrMalformedHeader), "byte %d bit %d", i, bit)
			require.True(t, IsDataError(err))
		}
	}
}

func TestParseRecipeTooShort(t *testing.T) {
	ks := createKeySet(t, 2, 128)
	_, header, err := ks.newRecipe(false)
	require.NoError(t, err)
	_, err = ks.parseRecipe(header[:len(header)-1], false)
	require.True(t, errors.Is(err, ErrHeaderTooShort))
	require.True(t, IsDataError(err))
}

func TestRecipeTooFewCandidates(t *testing.T) {
	ks, err := New(Spec{KeyLength: 128, CipherSteps: 3}, primitive.NewFactory())
	require.NoError(t, err)
	require.NoError(t, ks.DeclareKey(primitive.AES, make([]byte, 16)))
	require.NoError(t, ks.DeclareKey(primitive.LEA, make([]byte, 16)))
	_, _, err = ks.newRecipe(false)
	require.True(t, errors.Is(err, ErrInvalidAlgorithmSet))
}

func TestRecipeAllCandidates(t *testing.T) {
	for _, spec := range []Spec{
		{KeyLength: 128, CipherSteps: 7},
		{KeyLength: 192, CipherSteps: 6},
		{KeyLength: 256, CipherSteps: 6},
	} {
		ks, err := New(spec, primitive.NewFactory())
		require.NoError(t, err)
		require.NoError(t, ks.BuildFromRandom())
		require.Len(t, ks.candidates(false), spec.CipherSteps)

		p, header, err := ks.newRecipe(false)
		require.NoError(t, err)
		require.ElementsMatch(t, ks.candidates(false), p.Algorithms)
		parsed, err := ks.parseRecipe(header, false)
		require.NoError(t, err)
		require.Equal(t, p, parsed)
	}
}

func TestRecipeDeclaredKeys(t *testing.T) {
	ks, err := New(Spec{KeyLength: 128, CipherSteps: 2}, primitive.NewFactory())
	require.NoError(t, err)
	require.NoError(t, ks.DeclareKey(primitive.AES, make([]byte, 16)))
	require.NoError(t, ks.DeclareKey(primitive.SM4, make([]byte, 16)))
	for k := 0; k < 10; k++ {
		p, _, err := ks.newRecipe(k%2 == 1)
		require.NoError(t, err)
		require.ElementsMatch(t, []primitive.Algorithm{primitive.AES, primitive.SM4}, p.Algorithms)
	}
}

func TestRecipeCoversEveryChoice(t *testing.T) {
	ks := createKeySet(t, 3, 256)
	first := map[primitive.Algorithm]int{}
	digests := map[primitive.Digest]int{}
	carriers := map[int]int{}
	for k := 0; k < 1000; k++ {
		p, _, err := ks.newRecipe(false)
		require.NoError(t, err)
		first[p.Algorithms[0]]++
		digests[p.Digest]++
		for i, a := range p.Algorithms {
			if a == p.Carrier {
				carriers[i]++
			}
		}
	}
	for _, a := range ks.candidates(false) {
		require.NotZero(t, first[a], "%v never ran stage 0", a)
	}
	for _, d := range primitive.Digests() {
		require.NotZero(t, digests[d], "%v never drawn", d)
	}
	for i := 0; i < 3; i++ {
		require.NotZero(t, carriers[i], "carrier never at %d", i)
	}
}

// noAESFactory refuses AES for authenticated use.
type noAESFactory struct {
	*primitive.Factory
}

func (f noAESFactory) SupportedAlgorithms(keyLength int, aead bool) []primitive.Algorithm {
	var algs []primitive.Algorithm
	for _, a := range f.Factory.SupportedAlgorithms(keyLength, aead) {
		if !aead || a != primitive.AES {
			algs = append(algs, a)
		}
	}
	return algs
}

func TestParseRecipeAEADAlgorithms(t *testing.T) {
	ks, err := New(Spec{KeyLength: 128, CipherSteps: 6}, noAESFactory{primitive.NewFactory()})
	require.NoError(t, err)
	require.NoError(t, ks.BuildFromRandom())

	_, header, err := ks.newRecipe(false)
	require.NoError(t, err)
	_, err = ks.parseRecipe(header, false)
	require.NoError(t, err)

	for k := 0; k < 20; k++ {
		p, header, err := ks.newRecipe(false)
		require.NoError(t, err)
		_, err = ks.parseRecipe(header, true)
		hasAES := false
		for _, a := range p.Algorithms {
			hasAES = hasAES || a == primitive.AES
		}
		if hasAES {
			require.True(t, errors.Is(err, ErrInvalidAlgorithmSet))
		} else {
			require.NoError(t, err)
		}
	}

	p, header, err := ks.newRecipe(true)
	require.NoError(t, err)
	require.NotContains(t, p.Algorithms, primitive.AES)
	_, err = ks.parseRecipe(header, true)
	require.NoError(t, err)
}
