package primitive

import (
	"crypto/cipher"
	"crypto/subtle"
)

// blockCipher runs a block cipher in ECB mode, with or without PKCS7
// padding. Partial blocks are buffered across Update calls; a padded
// decryption additionally holds back the last full block until Finish so the
// padding can be removed.
type blockCipher struct {
	block       cipher.Block
	padded      bool
	encrypting  bool
	initialized bool

	buf  [BlockSize]byte
	nbuf int
}

func newBlockCipher(block cipher.Block, padded bool) *blockCipher {
	return &blockCipher{block: block, padded: padded}
}

func (c *blockCipher) Mode() Mode {
	if c.padded {
		return ModePadded
	}
	return ModeUnpadded
}

func (c *blockCipher) NeedsIV() bool { return false }

func (c *blockCipher) Init(encrypting bool, _ []byte) error {
	c.Reset()
	c.encrypting = encrypting
	c.initialized = true
	return nil
}

func (c *blockCipher) UpdateOutputSize(n int) int {
	return UpdateOutputSize(c.Mode(), c.encrypting, c.nbuf, n)
}

func (c *blockCipher) OutputSize(n int) int {
	return OutputSize(c.Mode(), c.encrypting, c.nbuf, n)
}

func (c *blockCipher) crypt(dst, src []byte) {
	if c.encrypting {
		c.block.Encrypt(dst, src)
	} else {
		c.block.Decrypt(dst, src)
	}
}

func (c *blockCipher) Update(in, out []byte) (int, error) {
	if !c.initialized {
		return 0, ErrNotInitialized
	}
	n := c.UpdateOutputSize(len(in))
	if len(out) < n {
		return 0, ErrOutputTooShort
	}

	written := 0
	for written < n {
		if c.nbuf > 0 || len(in) < BlockSize {
			k := copy(c.buf[c.nbuf:], in)
			c.nbuf += k
			in = in[k:]
			c.crypt(out[written:written+BlockSize], c.buf[:])
			c.nbuf = 0
		} else {
			c.crypt(out[written:written+BlockSize], in[:BlockSize])
			in = in[BlockSize:]
		}
		written += BlockSize
	}
	c.nbuf += copy(c.buf[c.nbuf:], in)
	return n, nil
}

func (c *blockCipher) Finish(out []byte) (int, error) {
	if !c.initialized {
		return 0, ErrNotInitialized
	}
	defer c.clearBuffer()

	switch {
	case !c.padded:
		if c.nbuf != 0 {
			return 0, ErrNotBlockAligned
		}
		return 0, nil

	case c.encrypting:
		if len(out) < BlockSize {
			return 0, ErrOutputTooShort
		}
		pad := byte(BlockSize - c.nbuf)
		for i := c.nbuf; i < BlockSize; i++ {
			c.buf[i] = pad
		}
		c.block.Encrypt(out[:BlockSize], c.buf[:])
		return BlockSize, nil
	}

	if c.nbuf != BlockSize {
		return 0, ErrLastBlockIncomplete
	}
	var plain [BlockSize]byte
	c.block.Decrypt(plain[:], c.buf[:])
	pad := int(plain[BlockSize-1])
	if !validPadding(plain[:], pad) {
		return 0, ErrInvalidPadding
	}
	n := BlockSize - pad
	if len(out) < n {
		return 0, ErrOutputTooShort
	}
	copy(out, plain[:n])
	return n, nil
}

// validPadding checks PKCS7 padding without branching on the pad bytes.
func validPadding(block []byte, pad int) bool {
	if pad == 0 || pad > len(block) {
		return false
	}
	good := 1
	for i := len(block) - pad; i < len(block); i++ {
		good &= subtle.ConstantTimeByteEq(block[i], byte(pad))
	}
	return good == 1
}

func (c *blockCipher) clearBuffer() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.nbuf = 0
}

func (c *blockCipher) Reset() {
	c.clearBuffer()
	c.initialized = false
}
