package keyset

import "runtime"

// wipe zeroes b. The KeepAlive keeps the stores from being dropped as dead.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
