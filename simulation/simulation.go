// Package simul measures the cost of key set operations: CPU time of
// encryption and decryption, and the size overhead of each envelope, for a
// range of specs and message lengths.
package simul

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.dedis.ch/kyber/v3/util/random"

	"multicipher"
	"multicipher/keyset"
	"multicipher/primitive"
)

// Operation names used in result rows
const (
	OpEncrypt    = "encrypt"
	OpDecrypt    = "decrypt"
	OpEncryptAAD = "encrypt-aad"
	OpDecryptAAD = "decrypt-aad"
	OpSecure     = "secure"
	OpDerive     = "derive"
)

// ResultRow contains data about one sample of one experiment
type ResultRow struct {
	operation   string
	cipherSteps int
	keyLength   int
	dataLength  int
	iteration   int
	nRepeat     int
	value       float64
	userTime    float64
	systemTime  float64
}

// Results is a collection of ResultRow's
type Results struct {
	rows []*ResultRow
}

func (results *Results) add(operation string, spec keyset.Spec, dataLength int) *ResultRow {
	r := &ResultRow{
		operation:   operation,
		cipherSteps: spec.CipherSteps,
		keyLength:   spec.KeyLength,
		dataLength:  dataLength,
		nRepeat:     1,
	}
	results.rows = append(results.rows, r)
	return r
}

func (results *Results) addTime(operation string, spec keyset.Spec, dataLength, iteration, nRepeat int, t cpuTime) {
	r := results.add(operation, spec, dataLength)
	r.iteration, r.nRepeat = iteration, nRepeat
	r.value, r.userTime, r.systemTime = t.total(), t.user, t.system
}

// Len returns the number of rows.
func (results *Results) Len() int {
	return len(results.rows)
}

func (results Results) String() string {
	rows := make([]string, len(results.rows))
	for i, r := range results.rows {
		rows[i] = r.String()
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func (r ResultRow) String() string {
	return fmt.Sprintf("{\"operation\": \"%s\", \"cipherSteps\": \"%d\", \"keyLength\": \"%d\", "+
		"\"dataLength\": \"%d\", \"iteration\": \"%d\", \"nRepeat\": \"%d\", \"value\": \"%f\", "+
		"\"userTime\": \"%f\", \"systemTime\": \"%f\"}",
		r.operation, r.cipherSteps, r.keyLength, r.dataLength, r.iteration, r.nRepeat, r.value,
		r.userTime, r.systemTime)
}

func simulGetRandomBytes(length int) []byte {
	buffer := make([]byte, length)
	random.Bytes(buffer, random.New())
	return buffer
}

func createKeySet(spec keyset.Spec) (*keyset.KeySet, error) {
	ks, err := keyset.New(spec, primitive.NewFactory())
	if err != nil {
		return nil, err
	}
	if err := ks.BuildFromRandom(); err != nil {
		return nil, err
	}
	return ks, nil
}

// roundTrip is a pair of operations, the second one reversing the first.
type roundTrip struct {
	seal, open         string
	sealFunc, openFunc func([]byte) ([]byte, error)
}

func roundTrips(ks *keyset.KeySet, aad []byte) []roundTrip {
	return []roundTrip{
		{OpEncrypt, OpDecrypt, ks.Encrypt, ks.Decrypt},
		{OpEncryptAAD, OpDecryptAAD,
			func(msg []byte) ([]byte, error) { return ks.EncryptAAD(aad, msg) },
			func(enc []byte) ([]byte, error) { return ks.DecryptAAD(aad, enc) }},
		{OpSecure, OpDerive, ks.SecureBytes, ks.DeriveBytes},
	}
}

// MeasureTime records the CPU time (ms) of every operation, for every spec
// and data length, nRepeat times each. Every round trip is checked.
func MeasureTime(nRepeat int, specs []keyset.Spec, dataLengths []int) (*Results, error) {
	results := &Results{}
	m := newMonitor()
	for _, spec := range specs {
		ks, err := createKeySet(spec)
		if err != nil {
			return nil, err
		}
		trips := roundTrips(ks, []byte("simulation"))
		for _, n := range dataLengths {
			for k := 0; k < nRepeat; k++ {
				multicipher.Logger.Debug().Msgf("Simulating %v, %d bytes, %d/%d", spec, n, k, nRepeat)
				msg := simulGetRandomBytes(n)
				for _, trip := range trips {
					var enc, dec []byte
					t, err := m.measure(func() (err error) {
						enc, err = trip.sealFunc(msg)
						return err
					})
					if err != nil {
						return nil, err
					}
					results.addTime(trip.seal, spec, n, k, nRepeat, t)

					t, err = m.measure(func() (err error) {
						dec, err = trip.openFunc(enc)
						return err
					})
					if err := check(err, msg, dec); err != nil {
						return nil, err
					}
					results.addTime(trip.open, spec, n, k, nRepeat, t)
				}
			}
		}
	}
	return results, nil
}

func check(err error, msg, dec []byte) error {
	if err != nil {
		return err
	}
	if !bytes.Equal(msg, dec) {
		return errors.AssertionFailedf("round trip of %d bytes did not decrypt correctly", len(msg))
	}
	return nil
}

// MeasureOverhead records, for every spec and data length, the number of
// bytes each envelope adds to the message.
func MeasureOverhead(specs []keyset.Spec, dataLengths []int) (*Results, error) {
	results := &Results{}
	for _, spec := range specs {
		ks, err := createKeySet(spec)
		if err != nil {
			return nil, err
		}
		for _, n := range dataLengths {
			results.add(OpEncrypt, spec, n).value = float64(ks.EncryptionLength(n, false) - n)
			results.add(OpEncryptAAD, spec, n).value = float64(ks.EncryptionLength(n, true) - n)
			results.add(OpSecure, spec, n).value = float64(ks.WrapLength(n) - n)
		}
	}
	return results, nil
}
