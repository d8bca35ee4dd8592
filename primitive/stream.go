package primitive

import (
	"crypto/cipher"

	"github.com/cockroachdb/errors"
)

// streamCipher runs a block cipher in CTR mode.
type streamCipher struct {
	block  cipher.Block
	stream cipher.Stream
}

func newStreamCipher(block cipher.Block) *streamCipher {
	return &streamCipher{block: block}
}

func (c *streamCipher) Mode() Mode    { return ModeStream }
func (c *streamCipher) NeedsIV() bool { return true }

func (c *streamCipher) Init(encrypting bool, iv []byte) error {
	if len(iv) != c.block.BlockSize() {
		return errors.Wrapf(ErrInvalidIV, "got %d bytes, want %d", len(iv), c.block.BlockSize())
	}
	c.stream = cipher.NewCTR(c.block, iv)
	return nil
}

func (c *streamCipher) UpdateOutputSize(n int) int { return n }
func (c *streamCipher) OutputSize(n int) int       { return n }

func (c *streamCipher) Update(in, out []byte) (int, error) {
	if c.stream == nil {
		return 0, ErrNotInitialized
	}
	if len(out) < len(in) {
		return 0, ErrOutputTooShort
	}
	c.stream.XORKeyStream(out[:len(in)], in)
	return len(in), nil
}

func (c *streamCipher) Finish(out []byte) (int, error) {
	if c.stream == nil {
		return 0, ErrNotInitialized
	}
	return 0, nil
}

func (c *streamCipher) Reset() {
	c.stream = nil
}
