// Package bench runs the memory throughput passes over a buffer: a
// checksummed fill, a verifying scan, a whole-buffer copy and an optional
// block copy, each timed and reported as bytes per second.
package bench

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"syscall"
	"time"

	"github.com/weiihann/membash/buffer"
	"github.com/weiihann/membash/config"
	"github.com/weiihann/membash/pattern"
)

// Runner executes one benchmark run.
type Runner struct {
	Config config.Config
	Logger *slog.Logger

	gen     *pattern.Generator
	acquire func(config.Config) (buffer.Buffer, error)
}

// NewRunner creates a Runner for cfg. cfg is expected to be validated.
func NewRunner(cfg config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		Config:  cfg,
		Logger:  logger,
		gen:     pattern.NewGenerator(cfg.Seed),
		acquire: Acquire,
	}
}

// Acquire obtains the buffer cfg asks for: a shared mapping of MmapPath, an
// anonymous mapping, or heap memory.
func Acquire(cfg config.Config) (buffer.Buffer, error) {
	if cfg.Size > math.MaxInt {
		return nil, &ResourceError{
			Op:  "acquire",
			Err: fmt.Errorf("size %d does not fit in memory: %w", cfg.Size, syscall.ENOMEM),
		}
	}

	size := int(cfg.Size)

	var (
		buf buffer.Buffer
		err error
	)

	switch {
	case cfg.MmapPath != "":
		buf, err = buffer.NewMapped(cfg.MmapPath, size)
	case cfg.Anonymous:
		buf, err = buffer.NewAnonymous(size)
	default:
		buf, err = buffer.NewHeap(size)
	}

	if err != nil {
		return nil, &ResourceError{Op: "acquire", Err: err}
	}

	return buf, nil
}

// Run acquires the buffer, fills it, runs every planned pass and releases
// the buffer. Results are returned in execution order, starting with the
// fill. The buffer is released exactly once, also when a pass fails.
func (r *Runner) Run() (results []Result, err error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}

	buf, err := r.acquire(r.Config)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("buffer acquired",
		slog.String("kind", string(buf.Kind())),
		slog.Int("bytes", buf.Len()),
		slog.Int("words", len(buf.Words())),
	)

	defer func() {
		if rerr := buf.Release(); rerr != nil {
			err = errors.Join(err, &ResourceError{Op: "release", Err: rerr})
		}
	}()

	results = append(results, r.setup(buf))

	if r.Config.Fence {
		Fence()
	}

	for _, kind := range Plan(r.Config) {
		res, err := r.runPass(kind, buf)
		if err != nil {
			return results, err
		}

		r.Logger.Debug("pass finished",
			slog.String("pass", res.Pass),
			slog.Duration("elapsed", res.Elapsed),
			slog.Uint64("bytes", res.Bytes),
		)

		results = append(results, res)
	}

	return results, nil
}

func (r *Runner) setup(buf buffer.Buffer) Result {
	var t Timing

	t.Start = time.Now()
	r.gen.Fill(buf.Words())
	t.End = time.Now()

	return newResult(Write, r.Config.Size, 1, t)
}

func (r *Runner) runPass(kind PassKind, buf buffer.Buffer) (Result, error) {
	iters := r.Config.Iterations
	total := iters * r.Config.Size

	var t Timing

	switch kind {
	case SequentialScan, PermutedScan:
		words := buf.Words()

		var perm []int
		if kind == PermutedScan {
			perm = r.gen.Permutation(len(words))
		}

		t.Start = time.Now()
		err := scanWords(kind, words, perm, iters)
		t.End = time.Now()

		if err != nil {
			return Result{}, err
		}

	case MemCopy:
		dst := make([]byte, buf.Len())

		t.Start = time.Now()
		copyAll(dst, buf.Bytes(), iters)
		t.End = time.Now()

	case BlockCopy, PermutedBlockCopy:
		scratch := make([]byte, r.Config.BlockSize)

		var perm []int
		if kind == PermutedBlockCopy {
			perm = r.gen.Permutation(r.Config.Blocks())
		}

		t.Start = time.Now()
		copyBlocks(scratch, buf.Bytes(), perm, iters)
		t.End = time.Now()

	default:
		return Result{}, fmt.Errorf("unknown pass %s", kind)
	}

	return newResult(kind, total, iters, t), nil
}
