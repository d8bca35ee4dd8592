package keyset

// Encrypt returns header | ciphertext for data.
func (ks *KeySet) Encrypt(data []byte) ([]byte, error) {
	return seal(newKeySetCipher(ks, ks.multi, false), data)
}

// Decrypt reverses Encrypt.
func (ks *KeySet) Decrypt(blob []byte) ([]byte, error) {
	return open(newKeySetCipher(ks, ks.multi, false), blob)
}

// EncryptAAD returns header | ciphertext | encrypted tag, authenticating aad
// along with data.
func (ks *KeySet) EncryptAAD(aad, data []byte) ([]byte, error) {
	c := newAADCipher(ks, ks.multi)
	if err := c.InitForEncrypt(); err != nil {
		return nil, err
	}
	if err := c.UpdateAAD(aad); err != nil {
		return nil, err
	}
	return run(c, data)
}

// DecryptAAD reverses EncryptAAD. Nothing is returned unless the tag
// verifies.
func (ks *KeySet) DecryptAAD(aad, blob []byte) ([]byte, error) {
	c := newAADCipher(ks, ks.multi)
	if err := c.InitForDecrypt(); err != nil {
		return nil, err
	}
	if err := c.UpdateAAD(aad); err != nil {
		return nil, err
	}
	return run(c, blob)
}

type streamCipher interface {
	InitForEncrypt() error
	InitForDecrypt() error
	Update(in, out []byte) (int, error)
	Finish(out []byte) (int, error)
	OutputLength(n int) (int, bool)
}

func seal(c streamCipher, data []byte) ([]byte, error) {
	if err := c.InitForEncrypt(); err != nil {
		return nil, err
	}
	return run(c, data)
}

func open(c streamCipher, blob []byte) ([]byte, error) {
	if err := c.InitForDecrypt(); err != nil {
		return nil, err
	}
	return run(c, blob)
}

// run pushes in through an initialised cipher in one call.
func run(c streamCipher, in []byte) ([]byte, error) {
	l, ready := c.OutputLength(len(in))
	if !ready {
		return nil, dataErrorf(ErrDataTooShort, "%d bytes", len(in))
	}
	out := make([]byte, l)
	n, err := c.Update(in, out)
	if err != nil {
		return nil, err
	}
	f, err := c.Finish(out[n:])
	if err != nil {
		wipe(out)
		return nil, err
	}
	return out[:n+f], nil
}

// SecureBytes wraps data under a fresh recipe: header | wrapped.
func (ks *KeySet) SecureBytes(data []byte) ([]byte, error) {
	if err := ks.checkPopulated(); err != nil {
		return nil, err
	}
	p, header, err := ks.newRecipe(false)
	if err != nil {
		return nil, err
	}
	defer p.wipe()
	wrapped, err := ks.multi.SecureBytes(p, data)
	if err != nil {
		return nil, err
	}
	return append(header, wrapped...), nil
}

// DeriveBytes reverses SecureBytes.
func (ks *KeySet) DeriveBytes(blob []byte) ([]byte, error) {
	if err := ks.checkPopulated(); err != nil {
		return nil, err
	}
	p, err := ks.parseRecipe(blob, false)
	if err != nil {
		return nil, err
	}
	defer p.wipe()
	return ks.multi.DeriveBytes(p, blob, ks.spec.HeaderLength())
}
