package keyset

import (
	"github.com/cockroachdb/errors"
)

// Error classes. Every error returned by this package carries exactly one of
// these marks, test with IsDataError, IsLogicError and IsIOError.
var (
	// ErrData marks failures caused by the bytes supplied: corruption,
	// tampering, a wrong key set or a truncated input.
	ErrData = errors.New("data error")

	// ErrLogic marks calls made in a state that does not allow them.
	ErrLogic = errors.New("logic error")

	// ErrIO marks failures of an underlying encoder or decoder.
	ErrIO = errors.New("i/o error")
)

// Data errors
var (
	ErrHeaderTooShort      = errors.New("header too short")
	ErrMalformedHeader     = errors.New("malformed header")
	ErrInvalidAlgorithmSet = errors.New("invalid algorithm set")
	ErrDataTooShort        = errors.New("data too short")
	ErrBufferTooShort      = errors.New("output buffer too short")
	ErrMACMismatch         = errors.New("mac check failed")
	ErrSecretLength        = errors.New("wrong secret length")
	ErrInvalidSpec         = errors.New("invalid key set spec")
	ErrUnsupportedKey      = errors.New("unsupported key")
)

// Logic errors
var (
	ErrNotInitialized = errors.New("cipher not initialised")
	ErrAADAfterData   = errors.New("associated data after data")
	ErrDuplicateKey   = errors.New("key already declared")
	ErrAlreadyBuilt   = errors.New("key set already populated")
	ErrEmptyKeySet    = errors.New("key set not populated")
)

func dataError(err error) error {
	return errors.Mark(err, ErrData)
}

func dataErrorf(sentinel error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(sentinel, format, args...), ErrData)
}

func logicErrorf(sentinel error, format string, args ...interface{}) error {
	err := errors.WithAssertionFailure(errors.Wrapf(sentinel, format, args...))
	return errors.Mark(err, ErrLogic)
}

func ioError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrIO)
}

// IsDataError reports whether err was caused by the input bytes.
func IsDataError(err error) bool {
	return errors.Is(err, ErrData)
}

// IsLogicError reports whether err was caused by a call out of sequence.
func IsLogicError(err error) bool {
	return errors.Is(err, ErrLogic)
}

// IsIOError reports whether err wraps an encoding failure.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIO)
}
