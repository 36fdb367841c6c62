package bench

// Fence issues an MFENCE so stores from setup complete before the first
// timed pass starts.
func Fence() {
	mfence()
}

func mfence()
