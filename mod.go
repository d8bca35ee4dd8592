package multicipher

// Cipher is a streaming envelope cipher. Encrypting emits a recipe header
// followed by the pipeline output; decrypting consumes that header first.
type Cipher interface {
	InitForEncrypt() error

	InitForDecrypt() error

	Update(
		in []byte,
		out []byte,
	) (int, error)

	Finish(
		out []byte,
	) (int, error)

	// UpdateOutputLength returns the number of bytes Update would write for
	// n more input bytes. ready is false while the header is still incomplete.
	UpdateOutputLength(n int) (length int, ready bool)

	// OutputLength is UpdateOutputLength plus whatever Finish flushes.
	OutputLength(n int) (length int, ready bool)

	Reset()
}

// AEADCipher is a Cipher that additionally authenticates associated data
// supplied before the first data byte.
type AEADCipher interface {
	Cipher

	UpdateAAD(aad []byte) error
}

// Envelope is the byte-array surface of a key set.
type Envelope interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)

	EncryptAAD(aad, data []byte) ([]byte, error)
	DecryptAAD(aad, blob []byte) ([]byte, error)

	SecureBytes(data []byte) ([]byte, error)
	DeriveBytes(blob []byte) ([]byte, error)

	EncryptionLength(dataLength int, aead bool) int
	WrapLength(dataLength int) int
	KeySetWrapLength() int
}
