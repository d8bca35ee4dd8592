package primitive

import "github.com/cockroachdb/errors"

var (
	// ErrUnknownAlgorithm is returned for an algorithm ordinal no factory knows
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrUnsupportedKeyLength is returned when an algorithm is asked for a key length it does not take
	ErrUnsupportedKeyLength = errors.New("unsupported key length")

	// ErrUnknownDigest is returned for a digest ordinal outside of Digests()
	ErrUnknownDigest = errors.New("unknown digest")

	// ErrOutputTooShort is returned by Update and Finish when out cannot hold the result
	ErrOutputTooShort = errors.New("output buffer too short")

	// ErrInvalidPadding is returned when the last block of a padded decryption is not valid PKCS7
	ErrInvalidPadding = errors.New("pad block corrupted")

	// ErrNotBlockAligned is returned when an unpadded block cipher finishes with a partial block
	ErrNotBlockAligned = errors.New("data not block size aligned")

	// ErrLastBlockIncomplete is returned when a padded decryption finishes without a full last block
	ErrLastBlockIncomplete = errors.New("last block incomplete in decryption")

	// ErrInvalidIV is returned when a stream cipher is initialised with an IV of the wrong size
	ErrInvalidIV = errors.New("invalid IV length")

	// ErrNotInitialized is returned when a cipher is used before Init
	ErrNotInitialized = errors.New("cipher not initialised")
)
