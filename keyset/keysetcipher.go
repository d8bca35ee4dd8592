package keyset

import (
	"multicipher"
)

type cipherState int

const (
	stateUninitialized cipherState = iota
	stateInitialized
	// decrypting, part of the header has arrived
	stateHeaderPending
	stateActive
)

// KeySetCipher streams a message through a MultiCipher. Encryption prepends
// a fresh recipe header to the first output; decryption accumulates the
// header across any number of Update calls before the pipeline starts.
type KeySetCipher struct {
	keySet     *KeySet
	multi      *MultiCipher
	aead       bool
	encrypting bool
	state      cipherState

	// header cache and the count of its valid bytes when decrypting
	header []byte
	cached int
	// encrypting, the header is synthesized but not yet written
	pending bool
	params  *Parameters

	// start runs once the parameters of a message are known
	start func(p *Parameters) error
}

var _ multicipher.Cipher = (*KeySetCipher)(nil)

func newKeySetCipher(ks *KeySet, m *MultiCipher, aead bool) *KeySetCipher {
	return &KeySetCipher{
		keySet: ks,
		multi:  m,
		aead:   aead,
		header: make([]byte, ks.spec.HeaderLength()),
	}
}

func (c *KeySetCipher) InitForEncrypt() error {
	return c.init(true)
}

func (c *KeySetCipher) InitForDecrypt() error {
	return c.init(false)
}

func (c *KeySetCipher) init(encrypting bool) error {
	if err := c.keySet.checkPopulated(); err != nil {
		return err
	}
	c.clear()
	c.encrypting = encrypting
	c.state = stateInitialized
	return nil
}

// Reset forgets the current message; Init has to be called again.
func (c *KeySetCipher) Reset() {
	c.clear()
	c.state = stateUninitialized
}

func (c *KeySetCipher) clear() {
	wipe(c.header)
	c.cached = 0
	c.pending = false
	if c.params != nil {
		c.params.wipe()
		c.params = nil
	}
	c.multi.active = false
}

// done readies the cipher for the next message in the same direction.
func (c *KeySetCipher) done() {
	c.clear()
	c.state = stateInitialized
}

func (c *KeySetCipher) fail() {
	c.clear()
	c.state = stateUninitialized
}

func (c *KeySetCipher) checkInitialized(op string) error {
	if c.state == stateUninitialized {
		return logicErrorf(ErrNotInitialized, "%s", op)
	}
	return nil
}

// begin synthesizes the recipe of a new encryption.
func (c *KeySetCipher) begin() error {
	p, header, err := c.keySet.newRecipe(c.aead)
	if err != nil {
		return err
	}
	if err := c.multi.InitCiphers(p, true); err != nil {
		p.wipe()
		return err
	}
	copy(c.header, header)
	c.params = p
	c.pending = true
	c.state = stateActive
	if c.start != nil {
		return c.start(p)
	}
	return nil
}

// consumeHeader caches header bytes from in and returns what follows the
// header. ready stays false until the whole header has arrived.
func (c *KeySetCipher) consumeHeader(in []byte) (rest []byte, ready bool, err error) {
	if c.state == stateActive {
		return in, true, nil
	}
	k := copy(c.header[c.cached:], in)
	c.cached += k
	if c.cached < len(c.header) {
		c.state = stateHeaderPending
		return nil, false, nil
	}
	p, err := c.keySet.parseRecipe(c.header, c.aead)
	if err != nil {
		return nil, false, err
	}
	if err := c.multi.InitCiphers(p, false); err != nil {
		p.wipe()
		return nil, false, err
	}
	c.params = p
	c.state = stateActive
	if c.start != nil {
		if err := c.start(p); err != nil {
			return nil, false, err
		}
	}
	return in[k:], true, nil
}

// writeHeader starts a new encryption if needed and copies a pending header
// to out, once out is known to hold it plus the output of n more bytes.
func (c *KeySetCipher) writeHeader(out []byte, n int, final bool) (int, error) {
	if c.state == stateInitialized {
		if err := c.begin(); err != nil {
			return 0, err
		}
	}
	if !c.pending {
		return 0, nil
	}
	if need := len(c.header) + c.pipelineLength(n, final); len(out) < need {
		return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", need, len(out))
	}
	c.pending = false
	return copy(out, c.header), nil
}

func (c *KeySetCipher) encryptUpdate(in, out []byte) (hdr, n int, err error) {
	if hdr, err = c.writeHeader(out, len(in), false); err != nil {
		return 0, 0, err
	}
	n, err = c.multi.Update(in, out[hdr:])
	return hdr, n, err
}

func (c *KeySetCipher) encryptFinish(out []byte) (hdr, n int, err error) {
	if hdr, err = c.writeHeader(out, 0, true); err != nil {
		return 0, 0, err
	}
	n, err = c.multi.Finish(out[hdr:])
	return hdr, n, err
}

func (c *KeySetCipher) Update(in, out []byte) (int, error) {
	if err := c.checkInitialized("update"); err != nil {
		return 0, err
	}
	if c.encrypting {
		hdr, n, err := c.encryptUpdate(in, out)
		if err != nil {
			c.fail()
			return 0, err
		}
		return hdr + n, nil
	}

	if l, ready := c.UpdateOutputLength(len(in)); ready && len(out) < l {
		return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", l, len(out))
	}
	rest, ready, err := c.consumeHeader(in)
	if err != nil {
		c.fail()
		return 0, err
	}
	if !ready {
		return 0, nil
	}
	n, err := c.multi.Update(rest, out)
	if err != nil {
		c.fail()
		return 0, err
	}
	return n, nil
}

func (c *KeySetCipher) Finish(out []byte) (int, error) {
	if err := c.checkInitialized("finish"); err != nil {
		return 0, err
	}
	if c.encrypting {
		hdr, n, err := c.encryptFinish(out)
		if err != nil {
			c.fail()
			return 0, err
		}
		c.done()
		return hdr + n, nil
	}

	if c.state != stateActive {
		c.fail()
		return 0, dataErrorf(ErrDataTooShort, "header incomplete")
	}
	n, err := c.multi.Finish(out)
	if err != nil {
		c.fail()
		return 0, err
	}
	c.done()
	return n, nil
}

// pipelineLength sizes n more pipeline input bytes, with or without Finish.
func (c *KeySetCipher) pipelineLength(n int, final bool) int {
	switch {
	case c.multi.active && final:
		return c.multi.OutputLength(n)
	case c.multi.active:
		return c.multi.UpdateOutputLength(n)
	case final:
		return OutputLengthFor(c.keySet.spec.CipherSteps, n, c.encrypting)
	}
	return updateOutputLengthFor(c.keySet.spec.CipherSteps, n, c.encrypting)
}

// bodyInput is how many of n more input bytes reach the pipeline; ok is
// false while they do not complete the header.
func (c *KeySetCipher) bodyInput(n int) (int, bool) {
	if c.encrypting || c.state == stateActive {
		return n, true
	}
	rest := c.cached + n - len(c.header)
	if rest < 0 {
		return 0, false
	}
	return rest, true
}

func (c *KeySetCipher) outputLength(n int, final bool) (int, bool) {
	body, ok := c.bodyInput(n)
	if !ok {
		return 0, false
	}
	l := c.pipelineLength(body, final)
	if c.encrypting && (c.state == stateInitialized || c.pending) {
		l += len(c.header)
	}
	return l, true
}

func (c *KeySetCipher) UpdateOutputLength(n int) (int, bool) {
	return c.outputLength(n, false)
}

func (c *KeySetCipher) OutputLength(n int) (int, bool) {
	return c.outputLength(n, true)
}
