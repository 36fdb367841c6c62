package bench

import (
	"time"
)

// Result holds the measurement of one timed pass.
type Result struct {
	Pass       string        `json:"pass"`
	Label      string        `json:"label"`
	Bytes      uint64        `json:"bytes"`
	Iterations uint64        `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Throughput float64       `json:"bytes_per_second"`
}

// Timing is the wall-clock span of a pass.
type Timing struct {
	Start time.Time
	End   time.Time
}

// Elapsed returns the time between Start and End.
func (t Timing) Elapsed() time.Duration {
	return t.End.Sub(t.Start)
}

// Throughput returns bytes per second. Spans shorter than the clock can
// resolve are counted as one nanosecond.
func Throughput(bytes uint64, elapsed time.Duration) float64 {
	if elapsed < time.Nanosecond {
		elapsed = time.Nanosecond
	}

	return float64(bytes) / elapsed.Seconds()
}

func newResult(kind PassKind, bytes, iters uint64, t Timing) Result {
	return Result{
		Pass:       kind.String(),
		Label:      kind.Label(),
		Bytes:      bytes,
		Iterations: iters,
		Elapsed:    t.Elapsed(),
		Throughput: Throughput(bytes, t.Elapsed()),
	}
}
