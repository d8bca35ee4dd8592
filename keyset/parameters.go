package keyset

import (
	"fmt"
	"strings"

	"multicipher/primitive"
)

// Parameters drive a single operation: which algorithms run in which order,
// the IV material, the digest folded into the MAC and the algorithm that
// encrypts the MAC tag.
type Parameters struct {
	Algorithms []primitive.Algorithm
	IV         []byte
	Digest     primitive.Digest
	Carrier    primitive.Algorithm
}

// IVSection returns the i-th 16-byte section of the IV material.
func (p *Parameters) IVSection(i int) []byte {
	return p.IV[i*IVSectionLength : (i+1)*IVSectionLength]
}

// String lists the choices, never the IV.
func (p *Parameters) String() string {
	names := make([]string, len(p.Algorithms))
	for i, a := range p.Algorithms {
		names[i] = fmt.Sprintf("%v(%v)", a, primitive.ModeFor(i, len(p.Algorithms)))
	}
	return fmt.Sprintf("[%s] digest=%v carrier=%v", strings.Join(names, " -> "), p.Digest, p.Carrier)
}

func (p *Parameters) wipe() {
	wipe(p.IV)
}
