package bench

import (
	"fmt"

	"github.com/weiihann/membash/config"
	"github.com/weiihann/membash/pattern"
)

// PassKind identifies one of the fixed set of timed passes.
type PassKind int

const (
	// Write is the setup fill; it is timed and reported like a pass.
	Write PassKind = iota
	SequentialScan
	PermutedScan
	MemCopy
	BlockCopy
	PermutedBlockCopy
)

func (k PassKind) String() string {
	switch k {
	case Write:
		return "write"
	case SequentialScan:
		return "scan"
	case PermutedScan:
		return "scan-hash"
	case MemCopy:
		return "memcpy"
	case BlockCopy:
		return "blockcpy"
	case PermutedBlockCopy:
		return "blockcpy-hash"
	default:
		return fmt.Sprintf("pass(%d)", int(k))
	}
}

// Label is the name printed in front of the pass throughput.
func (k PassKind) Label() string {
	switch k {
	case Write:
		return "Wrote"
	case SequentialScan:
		return "Read (dumb)"
	case PermutedScan:
		return "Read (dumb/hash)"
	case MemCopy:
		return "Read (memcpy)"
	case BlockCopy:
		return "Read (blockcpy)"
	case PermutedBlockCopy:
		return "Read (blockcpy/hash)"
	default:
		return k.String()
	}
}

// Plan returns the timed passes a configuration runs, in order.
func Plan(cfg config.Config) []PassKind {
	plan := make([]PassKind, 0, 3)

	if cfg.HashScan {
		plan = append(plan, PermutedScan)
	} else {
		plan = append(plan, SequentialScan)
	}

	plan = append(plan, MemCopy)

	if cfg.BlockSize > 0 {
		if cfg.Hash {
			plan = append(plan, PermutedBlockCopy)
		} else {
			plan = append(plan, BlockCopy)
		}
	}

	return plan
}

// sink receives a byte of every block copy so the copies stay observable.
var sink byte

// scanWords sums words iters times, in perm order when perm is non-nil, and
// fails on the first non-zero sum.
func scanWords(kind PassKind, words []uint, perm []int, iters uint64) error {
	for it := uint64(0); it < iters; it++ {
		var sum uint
		if perm == nil {
			sum = pattern.Sum(words)
		} else {
			sum = pattern.SumPermuted(words, perm)
		}

		if sum != 0 {
			return &IntegrityError{Pass: kind, Sum: sum, Iteration: it}
		}
	}

	return nil
}

// copyAll copies src into dst iters times.
func copyAll(dst, src []byte, iters uint64) {
	for it := uint64(0); it < iters; it++ {
		copy(dst, src)
	}
}

// copyBlocks copies every whole block of src into scratch iters times, in
// perm order when perm is non-nil.
func copyBlocks(scratch, src []byte, perm []int, iters uint64) {
	bs := len(scratch)
	n := len(src) / bs

	for it := uint64(0); it < iters; it++ {
		if perm == nil {
			for i := 0; i < n; i++ {
				copy(scratch, src[i*bs:(i+1)*bs])
			}
		} else {
			for _, i := range perm {
				copy(scratch, src[i*bs:(i+1)*bs])
			}
		}
	}

	sink ^= scratch[bs-1]
}
