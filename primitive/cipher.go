package primitive

import "fmt"

// Mode is the closed set of cipher modes a pipeline stage can run in.
type Mode int

const (
	// ModeStream is CTR: length preserving, needs an IV
	ModeStream Mode = iota
	// ModePadded is ECB with PKCS7 padding
	ModePadded
	// ModeUnpadded is ECB over whole blocks only
	ModeUnpadded
)

func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModePadded:
		return "padded"
	case ModeUnpadded:
		return "unpadded"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ModeFor returns the mode of stage i in a pipeline of n stages: the outer
// stages are stream ciphers, the second one pads, every other one is an
// unpadded block cipher.
func ModeFor(i, n int) Mode {
	switch {
	case i == 0 || i == n-1:
		return ModeStream
	case i == 1:
		return ModePadded
	default:
		return ModeUnpadded
	}
}

// Cipher is a keyed, stateful, buffered cipher in one Mode. in and out of a
// single call must not overlap.
type Cipher interface {
	Mode() Mode

	// NeedsIV reports whether Init consumes an IV.
	NeedsIV() bool

	// Init (re)starts the cipher in the given direction. iv is ignored by
	// modes that do not need one.
	Init(encrypting bool, iv []byte) error

	// UpdateOutputSize is the exact number of bytes Update(n bytes) writes.
	UpdateOutputSize(n int) int

	// OutputSize bounds the bytes written by Update(n bytes) followed by
	// Finish. It is exact everywhere except padded decryption.
	OutputSize(n int) int

	Update(in, out []byte) (int, error)

	// Finish flushes buffered data and resets the buffer.
	Finish(out []byte) (int, error)

	Reset()
}

// UpdateOutputSize computes Cipher.UpdateOutputSize for a cipher in mode m
// holding buffered bytes.
func UpdateOutputSize(m Mode, encrypting bool, buffered, n int) int {
	total := buffered + n
	switch m {
	case ModeStream:
		return n
	case ModePadded:
		if !encrypting {
			if total == 0 {
				return 0
			}
			keep := total % BlockSize
			if keep == 0 {
				keep = BlockSize
			}
			return total - keep
		}
	}
	return total - total%BlockSize
}

// OutputSize computes Cipher.OutputSize for a cipher in mode m holding
// buffered bytes.
func OutputSize(m Mode, encrypting bool, buffered, n int) int {
	total := buffered + n
	switch m {
	case ModeStream:
		return n
	case ModePadded:
		if encrypting {
			return total - total%BlockSize + BlockSize
		}
		return total
	}
	return total - total%BlockSize
}
