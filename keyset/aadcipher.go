package keyset

import (
	"crypto/subtle"
	"encoding/binary"
	"hash"

	"multicipher"
	"multicipher/primitive"
)

// AADCipher is a KeySetCipher authenticating its output with Poly1305. The
// one-time key comes from the recipe IV, the MAC covers
//
//	aad | pad16 | ciphertext | pad16 | le64(len aad) | le64(len ciphertext) | digest(plaintext)
//
// and the tag, encrypted with the carrier algorithm, trails the ciphertext.
// Decryption holds the last MacLength input bytes back until Finish.
type AADCipher struct {
	base *KeySetCipher

	aad []byte
	// no more associated data once the first data byte arrived
	aeadComplete bool

	mac        primitive.Mac
	digest     hash.Hash
	dataLength int

	tail  [MacLength]byte
	ntail int
}

var _ multicipher.AEADCipher = (*AADCipher)(nil)

func newAADCipher(ks *KeySet, m *MultiCipher) *AADCipher {
	c := &AADCipher{base: newKeySetCipher(ks, m, true)}
	c.base.start = c.start
	return c
}

func (c *AADCipher) InitForEncrypt() error {
	c.clear()
	return c.base.InitForEncrypt()
}

func (c *AADCipher) InitForDecrypt() error {
	c.clear()
	return c.base.InitForDecrypt()
}

func (c *AADCipher) Reset() {
	c.clear()
	c.base.Reset()
}

func (c *AADCipher) clear() {
	wipe(c.aad)
	c.aad = nil
	c.aeadComplete = false
	c.mac = nil
	c.digest = nil
	c.dataLength = 0
	wipe(c.tail[:])
	c.ntail = 0
}

func (c *AADCipher) fail() {
	c.clear()
	c.base.fail()
}

// UpdateAAD adds associated data. It is only allowed before any data.
func (c *AADCipher) UpdateAAD(aad []byte) error {
	if err := c.base.checkInitialized("update aad"); err != nil {
		return err
	}
	if c.aeadComplete {
		return logicErrorf(ErrAADAfterData, "%d bytes", len(aad))
	}
	c.aad = append(c.aad, aad...)
	return nil
}

// start keys the MAC once the recipe is known and absorbs the associated
// data.
func (c *AADCipher) start(p *Parameters) error {
	factory := c.base.keySet.factory
	key := c.base.multi.DerivePoly1305Key(p)
	mac, err := factory.CreateMac(key)
	wipe(key)
	if err != nil {
		return dataError(err)
	}
	digest, err := factory.CreateDigest(p.Digest)
	if err != nil {
		return dataError(err)
	}
	c.mac, c.digest = mac, digest
	c.mac.Write(c.aad)
	c.pad(len(c.aad))
	c.aeadComplete = true
	return nil
}

var zeroBlock [16]byte

func (c *AADCipher) pad(n int) {
	if r := n % len(zeroBlock); r != 0 {
		c.mac.Write(zeroBlock[r:])
	}
}

// tag closes the MAC input and returns the plain tag.
func (c *AADCipher) tag() []byte {
	c.pad(c.dataLength)
	var lengths [16]byte
	binary.LittleEndian.PutUint64(lengths[:8], uint64(len(c.aad)))
	binary.LittleEndian.PutUint64(lengths[8:], uint64(c.dataLength))
	c.mac.Write(lengths[:])
	c.mac.Write(c.digest.Sum(nil))
	return c.mac.Sum(nil)
}

func (c *AADCipher) Update(in, out []byte) (int, error) {
	if err := c.base.checkInitialized("update"); err != nil {
		return 0, err
	}
	c.aeadComplete = true
	if c.base.encrypting {
		hdr, n, err := c.base.encryptUpdate(in, out)
		if err != nil {
			c.fail()
			return 0, err
		}
		c.digest.Write(in)
		c.mac.Write(out[hdr : hdr+n])
		c.dataLength += n
		return hdr + n, nil
	}

	if l, ready := c.UpdateOutputLength(len(in)); ready && len(out) < l {
		return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", l, len(out))
	}
	rest, ready, err := c.base.consumeHeader(in)
	if err != nil {
		c.fail()
		return 0, err
	}
	if !ready {
		return 0, nil
	}

	total := c.ntail + len(rest)
	if total <= MacLength {
		c.ntail += copy(c.tail[c.ntail:], rest)
		return 0, nil
	}
	feed := total - MacLength
	fromTail := c.ntail
	if fromTail > feed {
		fromTail = feed
	}
	fromIn := feed - fromTail

	w := 0
	for _, ct := range [][]byte{c.tail[:fromTail], rest[:fromIn]} {
		if len(ct) == 0 {
			continue
		}
		n, err := c.open(ct, out[w:])
		if err != nil {
			c.fail()
			return 0, err
		}
		w += n
	}
	k := copy(c.tail[:], c.tail[fromTail:c.ntail])
	c.ntail = k + copy(c.tail[k:], rest[fromIn:])
	return w, nil
}

// open authenticates ciphertext and decrypts it.
func (c *AADCipher) open(ct, out []byte) (int, error) {
	c.mac.Write(ct)
	c.dataLength += len(ct)
	n, err := c.base.multi.Update(ct, out)
	if err != nil {
		return 0, err
	}
	c.digest.Write(out[:n])
	return n, nil
}

func (c *AADCipher) Finish(out []byte) (int, error) {
	if err := c.base.checkInitialized("finish"); err != nil {
		return 0, err
	}
	c.aeadComplete = true
	if c.base.encrypting {
		return c.sealFinish(out)
	}
	return c.openFinish(out)
}

func (c *AADCipher) sealFinish(out []byte) (int, error) {
	if l, _ := c.OutputLength(0); len(out) < l {
		return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", l, len(out))
	}
	hdr, n, err := c.base.encryptFinish(out)
	if err != nil {
		c.fail()
		return 0, err
	}
	c.mac.Write(out[hdr : hdr+n])
	c.dataLength += n

	tag, err := c.base.multi.EncryptMac(c.base.params, c.tag())
	if err != nil {
		c.fail()
		return 0, err
	}
	m := copy(out[hdr+n:], tag)
	c.base.done()
	c.clear()
	return hdr + n + m, nil
}

func (c *AADCipher) openFinish(out []byte) (int, error) {
	if c.base.state != stateActive || c.ntail < MacLength {
		c.fail()
		return 0, dataErrorf(ErrDataTooShort, "message shorter than header and tag")
	}
	bound, _ := c.OutputLength(0)
	if len(out) < bound {
		return 0, dataErrorf(ErrBufferTooShort, "need %d bytes, have %d", bound, len(out))
	}
	// A pipeline failure (bad padding, misaligned body) is reported as a
	// MAC mismatch, after the tag has been computed all the same.
	n, finishErr := c.base.multi.Finish(out)
	if finishErr == nil {
		c.digest.Write(out[:n])
	}

	expected, err := c.base.multi.EncryptMac(c.base.params, c.tag())
	if err != nil {
		c.fail()
		return 0, err
	}
	if subtle.ConstantTimeCompare(expected, c.tail[:]) != 1 || finishErr != nil {
		wipe(out[:bound])
		c.fail()
		multicipher.Logger.Warn().Msgf("MAC check failed after %d bytes", c.dataLength)
		return 0, dataErrorf(ErrMACMismatch, "tag")
	}
	c.base.done()
	c.clear()
	return n, nil
}

// held is the number of n more input bytes that reach the pipeline,
// after the header and the held back tag.
func (c *AADCipher) held(n int) (int, bool) {
	body, ok := c.base.bodyInput(n)
	if !ok {
		return 0, false
	}
	if c.base.encrypting {
		return body, true
	}
	body += c.ntail - MacLength
	if body < 0 {
		body = 0
	}
	return body, true
}

func (c *AADCipher) UpdateOutputLength(n int) (int, bool) {
	if c.base.encrypting {
		return c.base.UpdateOutputLength(n)
	}
	body, ok := c.held(n)
	if !ok {
		return 0, false
	}
	return c.base.pipelineLength(body, false), true
}

func (c *AADCipher) OutputLength(n int) (int, bool) {
	if c.base.encrypting {
		l, ok := c.base.OutputLength(n)
		return l + MacLength, ok
	}
	body, ok := c.held(n)
	if !ok {
		return 0, false
	}
	return c.base.pipelineLength(body, true), true
}
