package keyset

import (
	"crypto/cipher"

	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"

	"multicipher"
	"multicipher/keywrap"
	"multicipher/primitive"
)

// Length (in bytes) of the chunks pushed through the pipeline at once
const workingChunkSize = 32

// MultiCipher chains one SymKeyCipherSet per selected algorithm into a
// pipeline. Stage i of the encryption pipeline sits at position n-1-i of the
// decryption pipeline, and every stage reverses itself.
//
// Two scratch buffers alternate between stages: stage k writes to
// scratch[k%2] and reads what stage k-1 left in the other one. Both are
// wiped before Update and Finish return.
type MultiCipher struct {
	steps   int
	sets    map[primitive.Algorithm]*SymKeyCipherSet
	wrapper keywrap.Wrapper

	stages     []primitive.Cipher
	encrypting bool
	active     bool

	scratch [2][]byte
}

func newMultiCipher(spec Spec, factory primitive.CipherFactory, wrapper keywrap.Wrapper,
	keys map[primitive.Algorithm][]byte) (*MultiCipher, error) {
	m := &MultiCipher{
		steps:   spec.CipherSteps,
		sets:    make(map[primitive.Algorithm]*SymKeyCipherSet, len(keys)),
		wrapper: wrapper,
		stages:  make([]primitive.Cipher, spec.CipherSteps),
	}
	for alg, key := range keys {
		if err := m.addKey(factory, alg, key); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MultiCipher) addKey(factory primitive.CipherFactory, alg primitive.Algorithm, key []byte) error {
	set, err := newSymKeyCipherSet(factory, alg, key)
	if err != nil {
		return dataErrorf(ErrUnsupportedKey, "%v: %v", alg, err)
	}
	m.sets[alg] = set
	return nil
}

// validate checks that p names exactly one known, distinct algorithm per
// step.
func (m *MultiCipher) validate(p *Parameters) error {
	if len(p.Algorithms) != m.steps {
		return dataErrorf(ErrInvalidAlgorithmSet, "%d algorithms for %d steps", len(p.Algorithms), m.steps)
	}
	seen := bitset.New(uint(len(primitive.Algorithms())))
	for _, alg := range p.Algorithms {
		if _, ok := m.sets[alg]; !ok {
			return dataErrorf(ErrInvalidAlgorithmSet, "no key for %v", alg)
		}
		if seen.Test(uint(alg)) {
			return dataErrorf(ErrInvalidAlgorithmSet, "%v used twice", alg)
		}
		seen.Set(uint(alg))
	}
	return nil
}

// InitCiphers places and initialises one cipher per stage. Nothing is
// touched if p does not validate.
func (m *MultiCipher) InitCiphers(p *Parameters, encrypting bool) error {
	if err := m.validate(p); err != nil {
		return err
	}
	n := m.steps
	ivIndex := 0
	for i, alg := range p.Algorithms {
		c := m.sets[alg].CipherFor(i, n)
		var iv []byte
		if c.NeedsIV() {
			iv = p.IVSection(ivIndex)
			ivIndex++
		}
		if err := c.Init(encrypting, iv); err != nil {
			m.active = false
			return dataError(err)
		}
		position := i
		if !encrypting {
			position = n - 1 - i
		}
		m.stages[position] = c
	}
	m.encrypting = encrypting
	m.active = true
	multicipher.Logger.Debug().Msgf("Pipeline initialised, encrypting=%v, %v", encrypting, p)
	return nil
}

// UpdateOutputLength is the exact number of bytes Update writes for n more
// input bytes.
func (m *MultiCipher) UpdateOutputLength(n int) int {
	if !m.active {
		return updateOutputLengthFor(m.steps, n, m.encrypting)
	}
	for _, c := range m.stages {
		n = c.UpdateOutputSize(n)
	}
	return n
}

// OutputLength bounds the bytes written by Update(n bytes) plus Finish. It
// is exact when encrypting.
func (m *MultiCipher) OutputLength(n int) int {
	if !m.active {
		return OutputLengthFor(m.steps, n, m.encrypting)
	}
	for _, c := range m.stages {
		n = c.OutputSize(n)
	}
	return n
}

// stageMode is the mode of the cipher at pipeline position pos.
func stageMode(steps, pos int, encrypting bool) primitive.Mode {
	if !encrypting {
		pos = steps - 1 - pos
	}
	return primitive.ModeFor(pos, steps)
}

func updateOutputLengthFor(steps, n int, encrypting bool) int {
	for pos := 0; pos < steps; pos++ {
		n = primitive.UpdateOutputSize(stageMode(steps, pos, encrypting), encrypting, 0, n)
	}
	return n
}

// OutputLengthFor is OutputLength of a freshly initialised pipeline.
func OutputLengthFor(steps, n int, encrypting bool) int {
	for pos := 0; pos < steps; pos++ {
		n = primitive.OutputSize(stageMode(steps, pos, encrypting), encrypting, 0, n)
	}
	return n
}

func (m *MultiCipher) grow(k, n int) []byte {
	if cap(m.scratch[k]) < n {
		wipe(m.scratch[k][:cap(m.scratch[k])])
		m.scratch[k] = make([]byte, n)
	}
	return m.scratch[k][:n]
}

func (m *MultiCipher) wipeScratch() {
	for k := range m.scratch {
		wipe(m.scratch[k][:cap(m.scratch[k])])
	}
}

// Update pushes in through every stage, in chunks of workingChunkSize.
func (m *MultiCipher) Update(in, out []byte) (n int, err error) {
	if !m.active {
		return 0, logicErrorf(ErrNotInitialized, "update")
	}
	if need := m.UpdateOutputLength(len(in)); len(out) < need {
		return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", need, len(out))
	}
	defer m.wipeScratch()

	for len(in) > 0 {
		k := workingChunkSize
		if k > len(in) {
			k = len(in)
		}
		w, err := m.push(in[:k], out[n:])
		if err != nil {
			m.active = false
			return n, dataError(err)
		}
		n += w
		in = in[k:]
	}
	return n, nil
}

func (m *MultiCipher) push(data, out []byte) (int, error) {
	last := len(m.stages) - 1
	for k, c := range m.stages {
		if k == last {
			return c.Update(data, out)
		}
		buf := m.grow(k%2, c.UpdateOutputSize(len(data)))
		w, err := c.Update(data, buf)
		if err != nil {
			return 0, err
		}
		if w == 0 {
			return 0, nil
		}
		data = buf[:w]
	}
	return 0, nil
}

// Finish flushes every stage in pipeline order, feeding what one stage
// flushes into the next, and deactivates the pipeline.
func (m *MultiCipher) Finish(out []byte) (int, error) {
	if !m.active {
		return 0, logicErrorf(ErrNotInitialized, "finish")
	}
	if need := m.OutputLength(0); len(out) < need && m.encrypting {
		return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", need, len(out))
	}
	defer m.wipeScratch()
	m.active = false

	last := len(m.stages) - 1
	var carry []byte
	for k, c := range m.stages {
		var dst []byte
		if k == last {
			dst = out
		} else {
			dst = m.grow(k%2, c.OutputSize(len(carry)))
		}
		if len(dst) < c.OutputSize(len(carry)) {
			return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", c.OutputSize(len(carry)), len(dst))
		}
		w := 0
		if len(carry) > 0 {
			var err error
			if w, err = c.Update(carry, dst); err != nil {
				return 0, dataError(err)
			}
		}
		f, err := c.Finish(dst[w:])
		if err != nil {
			return 0, dataError(err)
		}
		carry = dst[:w+f]
	}
	return len(carry), nil
}

func (m *MultiCipher) blocks(algs []primitive.Algorithm) []cipher.Block {
	blocks := make([]cipher.Block, len(algs))
	for i, alg := range algs {
		blocks[i] = m.sets[alg].Block
	}
	return blocks
}

func reversed(algs []primitive.Algorithm) []primitive.Algorithm {
	r := make([]primitive.Algorithm, len(algs))
	for i, a := range algs {
		r[len(algs)-1-i] = a
	}
	return r
}

// SecureBytes stream-encrypts data with the first stage's algorithm and
// wraps the result in one key-wrap layer per remaining stage.
func (m *MultiCipher) SecureBytes(p *Parameters, data []byte) ([]byte, error) {
	if err := m.validate(p); err != nil {
		return nil, err
	}
	c := m.sets[p.Algorithms[0]].Stream
	if err := c.Init(true, p.IVSection(0)); err != nil {
		return nil, dataError(err)
	}
	ct := make([]byte, len(data))
	if _, err := c.Update(data, ct); err != nil {
		return nil, dataError(err)
	}
	wrapped, err := m.wrapper.Wrap(m.blocks(p.Algorithms[1:]), ct)
	wipe(ct)
	if err != nil {
		return nil, dataError(err)
	}
	return wrapped, nil
}

// DeriveBytes reverses SecureBytes on blob[offset:].
func (m *MultiCipher) DeriveBytes(p *Parameters, blob []byte, offset int) ([]byte, error) {
	if err := m.validate(p); err != nil {
		return nil, err
	}
	ct, err := m.wrapper.Unwrap(m.blocks(reversed(p.Algorithms[1:])), blob, offset)
	if err != nil {
		return nil, dataError(err)
	}
	c := m.sets[p.Algorithms[0]].Stream
	if err := c.Init(false, p.IVSection(0)); err != nil {
		return nil, dataError(err)
	}
	data := make([]byte, len(ct))
	if _, err := c.Update(ct, data); err != nil {
		return nil, dataError(err)
	}
	return data, nil
}

// WrapLength is the exact SecureBytes output length for n input bytes.
func (m *MultiCipher) WrapLength(n int) int {
	return m.wrapper.WrapLength(m.steps-1, n)
}

// DerivePoly1305Key returns IV sections 2 and 3 as the one-time MAC key.
func (m *MultiCipher) DerivePoly1305Key(p *Parameters) []byte {
	key := make([]byte, 0, primitive.MacKeySize)
	key = append(key, p.IVSection(2)...)
	return append(key, p.IVSection(3)...)
}

// EncryptMac encrypts a tag with the carrier's unpadded block cipher.
func (m *MultiCipher) EncryptMac(p *Parameters, tag []byte) ([]byte, error) {
	set, ok := m.sets[p.Carrier]
	if !ok {
		return nil, dataErrorf(ErrInvalidAlgorithmSet, "no key for carrier %v", p.Carrier)
	}
	if len(tag) != primitive.BlockSize {
		return nil, errors.AssertionFailedf("tag of %d bytes", len(tag))
	}
	c := set.Unpadded
	if err := c.Init(true, nil); err != nil {
		return nil, dataError(err)
	}
	out := make([]byte, primitive.BlockSize)
	if _, err := c.Update(tag, out); err != nil {
		return nil, dataError(err)
	}
	if _, err := c.Finish(out[primitive.BlockSize:]); err != nil {
		return nil, dataError(err)
	}
	c.Reset()
	return out, nil
}
