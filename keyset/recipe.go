package keyset

import (
	"crypto/subtle"
	"math/big"
	"sort"

	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/kyber/v3/xof/blake2xb"
	"golang.org/x/crypto/blake2b"

	"multicipher"
	"multicipher/primitive"
)

/*
 Recipe header, HeaderLength() bytes:

 +--------+--------------------------------------------+---------+
 | seed   | algorithm ordinals | digest | carrier pos  | check   |
 | 16     | steps              | 1      | 1            | 8       |
 +--------+--------------------------------------------+---------+
          <----------- masked with XOF(recipeKey|seed) ---------->

 The XOF keeps running after the mask and yields the IV material. The check
 is keyed BLAKE2b-256(recipeKey, seed|unmasked body) truncated to 8 bytes, so
 a header only parses under the key set that produced it.
*/

// computeRecipeKey hashes every (algorithm, key) pair in ordinal order.
func computeRecipeKey(keys map[primitive.Algorithm][]byte) []byte {
	algs := make([]primitive.Algorithm, 0, len(keys))
	for a := range keys {
		algs = append(algs, a)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })

	h, _ := blake2b.New256(nil)
	for _, a := range algs {
		h.Write([]byte{byte(a), byte(len(keys[a]))})
		h.Write(keys[a])
	}
	return h.Sum(nil)
}

// recipeStream returns the XOF producing the body mask then the IV.
func recipeStream(recipeKey, seed []byte) func(n int) []byte {
	material := make([]byte, 0, len(recipeKey)+len(seed))
	material = append(material, recipeKey...)
	material = append(material, seed...)
	xof := blake2xb.New(material)
	wipe(material)
	return func(n int) []byte {
		b := make([]byte, n)
		if _, err := xof.Read(b); err != nil {
			panic(err)
		}
		return b
	}
}

func headerCheck(recipeKey, seed, body []byte) []byte {
	h, _ := blake2b.New256(recipeKey)
	h.Write(seed)
	h.Write(body)
	return h.Sum(nil)[:CheckLength]
}

// candidates lists the algorithms of ks usable for a new recipe.
func (ks *KeySet) candidates(aead bool) []primitive.Algorithm {
	var algs []primitive.Algorithm
	for _, a := range ks.factory.SupportedAlgorithms(ks.spec.KeyLength, aead) {
		if _, ok := ks.keys[a]; ok {
			algs = append(algs, a)
		}
	}
	return algs
}

// intn draws uniformly from [0, m). random.Int never returns 0, so the draw
// is shifted by one.
func (ks *KeySet) intn(m int) int {
	return int(random.Int(big.NewInt(int64(m+1)), ks.rand).Int64()) - 1
}

// newRecipe draws fresh parameters and encodes them in a header.
func (ks *KeySet) newRecipe(aead bool) (*Parameters, []byte, error) {
	steps := ks.spec.CipherSteps
	algs := ks.candidates(aead)
	if len(algs) < steps {
		return nil, nil, dataErrorf(ErrInvalidAlgorithmSet, "%d usable algorithms for %d steps", len(algs), steps)
	}
	for i := 0; i < steps; i++ {
		j := i + ks.intn(len(algs)-i)
		algs[i], algs[j] = algs[j], algs[i]
	}
	digests := ks.factory.Digests()
	p := &Parameters{
		Algorithms: algs[:steps],
		Digest:     digests[ks.intn(len(digests))],
	}
	carrier := ks.intn(steps)
	p.Carrier = p.Algorithms[carrier]

	header := make([]byte, ks.spec.HeaderLength())
	seed := header[:SeedLength]
	random.Bytes(seed, ks.rand)

	body := header[SeedLength : SeedLength+ks.spec.bodyLength()]
	for i, a := range p.Algorithms {
		body[i] = byte(a)
	}
	body[steps] = byte(p.Digest)
	body[steps+1] = byte(carrier)
	copy(header[SeedLength+len(body):], headerCheck(ks.recipeKey, seed, body))

	next := recipeStream(ks.recipeKey, seed)
	mask := next(len(body))
	for i := range body {
		body[i] ^= mask[i]
	}
	p.IV = next(ks.spec.IVLength())

	multicipher.Logger.Debug().Msgf("New recipe %v", p)
	return p, header, nil
}

// parseRecipe recovers the parameters of a header made by newRecipe with
// the same aead flag.
func (ks *KeySet) parseRecipe(header []byte, aead bool) (*Parameters, error) {
	hdrLen := ks.spec.HeaderLength()
	if len(header) < hdrLen {
		return nil, dataErrorf(ErrHeaderTooShort, "%d bytes, need %d", len(header), hdrLen)
	}
	steps := ks.spec.CipherSteps
	seed := header[:SeedLength]
	next := recipeStream(ks.recipeKey, seed)

	body := make([]byte, ks.spec.bodyLength())
	mask := next(len(body))
	for i := range body {
		body[i] = header[SeedLength+i] ^ mask[i]
	}
	check := header[SeedLength+len(body) : hdrLen]
	if subtle.ConstantTimeCompare(check, headerCheck(ks.recipeKey, seed, body)) != 1 {
		return nil, dataErrorf(ErrMalformedHeader, "check mismatch")
	}

	p := &Parameters{
		Algorithms: make([]primitive.Algorithm, steps),
		Digest:     primitive.Digest(body[steps]),
	}
	usable := map[primitive.Algorithm]bool{}
	for _, a := range ks.factory.SupportedAlgorithms(ks.spec.KeyLength, aead) {
		usable[a] = true
	}
	for i := range p.Algorithms {
		p.Algorithms[i] = primitive.Algorithm(body[i])
		if !usable[p.Algorithms[i]] {
			return nil, dataErrorf(ErrInvalidAlgorithmSet, "unsupported %v", p.Algorithms[i])
		}
	}
	if !p.Digest.Valid() {
		return nil, dataErrorf(ErrInvalidAlgorithmSet, "unknown %v", p.Digest)
	}
	carrier := int(body[steps+1])
	if carrier >= steps {
		return nil, dataErrorf(ErrInvalidAlgorithmSet, "carrier position %d", carrier)
	}
	p.Carrier = p.Algorithms[carrier]
	p.IV = next(ks.spec.IVLength())

	multicipher.Logger.Debug().Msgf("Parsed recipe %v", p)
	return p, nil
}
