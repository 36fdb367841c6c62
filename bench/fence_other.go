//go:build !amd64

package bench

import "sync/atomic"

var fenceWord atomic.Uint64

// Fence performs a sequentially consistent atomic update, which orders all
// earlier stores from setup before the first timed pass.
func Fence() {
	fenceWord.Add(1)
}
