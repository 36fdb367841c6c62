package bench

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weiihann/membash/buffer"
	"github.com/weiihann/membash/config"
	"github.com/weiihann/membash/pattern"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDefaultScenario(t *testing.T) {
	cfg := config.Config{Size: 1024, Iterations: 1, Seed: 42}

	results, err := NewRunner(cfg, discardLogger()).Run()
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, "write", results[0].Pass)
	require.Equal(t, uint64(1024), results[0].Bytes)
	require.Equal(t, "scan", results[1].Pass)
	require.Equal(t, "memcpy", results[2].Pass)

	for _, r := range results {
		require.Positive(t, r.Throughput, r.Pass)
	}
}

func TestRunAllPasses(t *testing.T) {
	cfg := config.Config{
		Size:       64 << 10,
		Iterations: 3,
		BlockSize:  256,
		Seed:       9,
		Hash:       true,
		HashScan:   true,
		Fence:      true,
	}

	results, err := NewRunner(cfg, discardLogger()).Run()
	require.NoError(t, err)
	require.Len(t, results, 4)

	want := []string{"write", "scan-hash", "memcpy", "blockcpy-hash"}
	for i, r := range results {
		require.Equal(t, want[i], r.Pass)
	}

	for _, r := range results[1:] {
		require.Equal(t, uint64(3), r.Iterations)
		require.Equal(t, uint64(3*64<<10), r.Bytes)
	}
}

func TestRunMapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region")
	require.NoError(t, os.WriteFile(path, make([]byte, 8192), 0o644))

	cfg := config.Config{
		Size:       8192,
		Iterations: 2,
		BlockSize:  512,
		Seed:       42,
		MmapPath:   path,
	}

	_, err := NewRunner(cfg, discardLogger()).Run()
	require.NoError(t, err)

	region, err := buffer.NewMapped(path, 8192)
	require.NoError(t, err)
	defer region.Release()

	require.Zero(t, pattern.Sum(region.Words()), "mapped file should hold the checksummed pattern")
}

func TestRunAnonymous(t *testing.T) {
	cfg := config.Config{Size: 1 << 16, Iterations: 1, Seed: 3, Anonymous: true}

	results, err := NewRunner(cfg, discardLogger()).Run()
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestRunMappedMissingFile(t *testing.T) {
	cfg := config.Config{
		Size:       4096,
		Iterations: 1,
		Seed:       1,
		MmapPath:   filepath.Join(t.TempDir(), "missing"),
	}

	_, err := NewRunner(cfg, discardLogger()).Run()

	var resErr *ResourceError
	require.True(t, errors.As(err, &resErr))
	require.ErrorIs(t, err, syscall.ENOENT)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.Config{Size: 1024, Iterations: 1, Seed: 1, Hash: true}

	_, err := NewRunner(cfg, discardLogger()).Run()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunSameSeedSamePattern(t *testing.T) {
	a, err := buffer.NewHeap(4096)
	require.NoError(t, err)
	defer a.Release()

	b, err := buffer.NewHeap(4096)
	require.NoError(t, err)
	defer b.Release()

	cfg := config.Config{Size: 4096, Iterations: 1, Seed: 1234}

	NewRunner(cfg, discardLogger()).setup(a)
	NewRunner(cfg, discardLogger()).setup(b)

	require.Equal(t, a.Bytes(), b.Bytes())
	require.Zero(t, pattern.Sum(a.Words()))
}

func TestRunHeapTooLarge(t *testing.T) {
	cfg := config.Config{Size: 4 << 50, Iterations: 1, Seed: 1}

	_, err := NewRunner(cfg, discardLogger()).Run()

	var resErr *ResourceError
	require.True(t, errors.As(err, &resErr))
	require.ErrorIs(t, err, syscall.ENOMEM)
}

// trackingBuffer counts releases. With corrupt set it flips a word on every
// word view after the first, so the fill succeeds and the scan that follows
// sees a non-zero sum.
type trackingBuffer struct {
	*buffer.Region

	corrupt    bool
	views      int
	releases   int
	releaseErr error
}

func (b *trackingBuffer) Words() []uint {
	words := b.Region.Words()
	if b.corrupt && b.views > 0 {
		words[0]++
	}

	b.views++

	return words
}

func (b *trackingBuffer) Release() error {
	b.releases++

	if err := b.Region.Release(); err != nil {
		return err
	}

	return b.releaseErr
}

func newTrackingRunner(t *testing.T, cfg config.Config, corrupt bool) (*Runner, *trackingBuffer) {
	t.Helper()

	region, err := buffer.NewHeap(int(cfg.Size))
	require.NoError(t, err)

	buf := &trackingBuffer{Region: region, corrupt: corrupt}

	r := NewRunner(cfg, discardLogger())
	r.acquire = func(config.Config) (buffer.Buffer, error) {
		return buf, nil
	}

	return r, buf
}

func TestRunReleasesAfterIntegrityFailure(t *testing.T) {
	cfg := config.Config{Size: 4096, Iterations: 2, BlockSize: 512, Seed: 42}
	r, buf := newTrackingRunner(t, cfg, true)

	results, err := r.Run()

	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity), "err = %v", err)
	require.Equal(t, SequentialScan, integrity.Pass)
	require.Equal(t, uint(1), integrity.Sum)

	require.Len(t, results, 1)
	require.Equal(t, "write", results[0].Pass)
	require.Equal(t, 1, buf.releases)
}

func TestRunJoinsReleaseError(t *testing.T) {
	cfg := config.Config{Size: 4096, Iterations: 1, Seed: 42}
	r, buf := newTrackingRunner(t, cfg, true)
	buf.releaseErr = errors.New("unmap failed")

	_, err := r.Run()

	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity), "err = %v", err)

	var resErr *ResourceError
	require.True(t, errors.As(err, &resErr), "err = %v", err)
	require.Equal(t, "release", resErr.Op)
	require.Equal(t, 1, buf.releases)
}

func TestRunReleasesOnceOnSuccess(t *testing.T) {
	cfg := config.Config{Size: 4096, Iterations: 1, Seed: 42}

	r, buf := newTrackingRunner(t, cfg, false)

	results, err := r.Run()
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 1, buf.releases)
}
