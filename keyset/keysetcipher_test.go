package keyset

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3/xof/blake2xb"

	"multicipher"
)

// feed pushes data through c in chunks of chunk bytes (0 meaning one empty
// call before every byte) and finishes.
func feed(t *testing.T, c multicipher.Cipher, data []byte, chunk int) ([]byte, error) {
	var out []byte
	for len(data) > 0 {
		k := chunk
		if k == 0 {
			k = 1
			l, _ := c.UpdateOutputLength(0)
			buf := make([]byte, l)
			w, err := c.Update(nil, buf)
			if err != nil {
				return nil, err
			}
			out = append(out, buf[:w]...)
		}
		if k > len(data) {
			k = len(data)
		}
		l, _ := c.UpdateOutputLength(k)
		buf := make([]byte, l)
		w, err := c.Update(data[:k], buf)
		if err != nil {
			return nil, err
		}
		require.Equal(t, l, w)
		out = append(out, buf[:w]...)
		data = data[k:]
	}
	l, ready := c.OutputLength(0)
	if !ready {
		l = 0
	}
	buf := make([]byte, l)
	w, err := c.Finish(buf)
	if err != nil {
		return nil, err
	}
	return append(out, buf[:w]...), nil
}

func TestStreamingEquivalence(t *testing.T) {
	for steps := 2; steps <= 5; steps++ {
		ks := createKeySet(t, steps, 128)
		data := createData(333)

		ks.SetRandSource(blake2xb.New([]byte("same recipe")))
		c := ks.NewCipher()
		require.NoError(t, c.InitForEncrypt())
		whole, err := feed(t, c, data, len(data))
		require.NoError(t, err)

		ks.SetRandSource(blake2xb.New([]byte("same recipe")))
		require.NoError(t, c.InitForEncrypt())
		bytewise, err := feed(t, c, data, 1)
		require.NoError(t, err)
		require.Equal(t, whole, bytewise)
		require.Equal(t, ks.EncryptionLength(len(data), false), len(whole))

		blob, err := ks.Encrypt(data)
		require.NoError(t, err)
		require.NotEqual(t, whole, blob)
	}
}

func TestStreamingDecryptChunks(t *testing.T) {
	ks := createKeySet(t, 4, 256)
	hdr := ks.spec.HeaderLength()
	data := createData(200)
	blob, err := ks.Encrypt(data)
	require.NoError(t, err)

	c := ks.NewCipher()
	for _, chunk := range []int{0, 1, hdr - 1, hdr, hdr + 1, 7, len(blob)} {
		require.NoError(t, c.InitForDecrypt())
		dec, err := feed(t, c, blob, chunk)
		require.NoError(t, err, "chunk %d", chunk)
		require.Equal(t, data, dec, "chunk %d", chunk)
	}
}

func TestOutputLengthNotReady(t *testing.T) {
	ks := createKeySet(t, 3, 192)
	hdr := ks.spec.HeaderLength()
	blob, err := ks.Encrypt(createData(40))
	require.NoError(t, err)

	c := ks.NewCipher()
	require.NoError(t, c.InitForDecrypt())
	_, ready := c.OutputLength(hdr - 1)
	require.False(t, ready)
	l, ready := c.UpdateOutputLength(hdr)
	require.True(t, ready)
	require.Equal(t, 0, l)

	n, err := c.Update(blob[:hdr-1], nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	_, ready = c.UpdateOutputLength(0)
	require.False(t, ready)
	_, ready = c.UpdateOutputLength(1)
	require.True(t, ready)

	out := make([]byte, 100)
	n, err = c.Update(blob[hdr-1:], out)
	require.NoError(t, err)
	f, err := c.Finish(out[n:])
	require.NoError(t, err)
	require.Equal(t, createData(40), out[:n+f])
}

func TestEncryptOutputLengthExact(t *testing.T) {
	for steps := 2; steps <= 5; steps++ {
		ks := createKeySet(t, steps, 256)
		c := ks.NewCipher()
		for _, n := range testLengths {
			require.NoError(t, c.InitForEncrypt())
			l, ready := c.OutputLength(n)
			require.True(t, ready)
			out, err := feed(t, c, createData(n), 10)
			require.NoError(t, err)
			require.Equal(t, l, len(out))
		}
	}
}

func TestFinishBeforeHeader(t *testing.T) {
	ks := createKeySet(t, 2, 128)
	c := ks.NewCipher()
	require.NoError(t, c.InitForDecrypt())
	_, err := c.Update(make([]byte, 5), nil)
	require.NoError(t, err)
	_, err = c.Finish(nil)
	require.True(t, errors.Is(err, ErrDataTooShort))
	require.True(t, IsDataError(err))

	_, err = ks.Decrypt(make([]byte, ks.spec.HeaderLength()-1))
	require.True(t, errors.Is(err, ErrDataTooShort))
}

func TestUpdateBeforeInit(t *testing.T) {
	ks := createKeySet(t, 2, 128)
	c := ks.NewCipher()
	_, err := c.Update([]byte("x"), make([]byte, 100))
	require.True(t, errors.Is(err, ErrNotInitialized))
	require.True(t, IsLogicError(err))

	require.NoError(t, c.InitForEncrypt())
	c.Reset()
	_, err = c.Finish(make([]byte, 100))
	require.True(t, IsLogicError(err))
}

func TestCipherReuse(t *testing.T) {
	ks := createKeySet(t, 3, 128)
	c := ks.NewCipher()
	require.NoError(t, c.InitForEncrypt())
	first, err := feed(t, c, []byte("message"), 3)
	require.NoError(t, err)
	second, err := feed(t, c, []byte("message"), 3)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	d := ks.NewCipher()
	require.NoError(t, d.InitForDecrypt())
	for _, blob := range [][]byte{first, second} {
		dec, err := feed(t, d, blob, 5)
		require.NoError(t, err)
		require.Equal(t, []byte("message"), dec)
	}
}

func TestEncryptBufferTooShort(t *testing.T) {
	ks := createKeySet(t, 2, 128)
	c := ks.NewCipher()
	require.NoError(t, c.InitForEncrypt())
	_, err := c.Update([]byte("abc"), make([]byte, ks.spec.HeaderLength()))
	require.True(t, errors.Is(err, ErrBufferTooShort))
}

func TestCorruptedBody(t *testing.T) {
	ks := createKeySet(t, 3, 128)
	blob, err := ks.Encrypt(createData(20))
	require.NoError(t, err)
	_, err = ks.Decrypt(blob[:len(blob)-1])
	require.True(t, IsDataError(err))
}
