// Package buffer provides the memory region a benchmark run reads and writes.
// A region is either allocated from the Go heap or mapped, and is released
// through the inverse of whatever acquired it.
package buffer

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// WordSize is the width in bytes of the natural machine word.
const WordSize = int(unsafe.Sizeof(uint(0)))

// ErrReleased is returned when a region is used or released after Release.
var ErrReleased = errors.New("buffer already released")

// Kind names how a region was acquired.
type Kind string

// Region kinds.
const (
	KindHeap      Kind = "heap"
	KindMapped    Kind = "mmap"
	KindAnonymous Kind = "anonymous"
)

// Buffer is a readable and writable memory region owned by one run.
type Buffer interface {
	Bytes() []byte
	Words() []uint
	Len() int
	Kind() Kind
	Release() error
}

// Region is the Buffer implementation for all acquisition paths.
type Region struct {
	kind     Kind
	data     []byte
	words    []uint
	mapped   mmap.MMap
	file     *os.File
	released bool
}

var _ Buffer = (*Region)(nil)

// NewHeap allocates a region of size bytes from the heap. The region is
// backed by whole words so the word view is always aligned. Sizes the
// runtime cannot allocate fail with ENOMEM.
func NewHeap(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, unix.EINVAL)
	}

	n := size / WordSize
	if size%WordSize != 0 {
		n++
	}

	words, err := allocWords(n)
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, err)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), size)

	return &Region{kind: KindHeap, data: data, words: words}, nil
}

func allocWords(n int) (words []uint, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v: %w", r, unix.ENOMEM)
		}
	}()

	return make([]uint, n), nil
}

// NewMapped opens path read-write and maps its first size bytes shared, so
// writes reach the file or device behind it. Regular files shorter than
// size are rejected; device files are mapped as they are.
func NewMapped(path string, size int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Mode().IsRegular() && info.Size() < int64(size) {
		f.Close()

		return nil, fmt.Errorf("map %s: file is %d bytes, need %d: %w",
			path, info.Size(), size, unix.EINVAL)
	}

	m, err := mmap.MapRegion(f, size, mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("map %s: %w", path, err)
	}

	return &Region{kind: KindMapped, data: m, mapped: m, file: f}, nil
}

// Bytes returns the region as a byte slice. It is nil after Release.
func (r *Region) Bytes() []byte {
	return r.data
}

// Words returns the region viewed as machine words, without copying.
// Trailing bytes that do not fill a whole word are not included.
func (r *Region) Words() []uint {
	n := len(r.data) / WordSize
	if n == 0 {
		return nil
	}

	if r.words != nil {
		return r.words[:n]
	}

	// Mappings start on a page boundary.
	return unsafe.Slice((*uint)(unsafe.Pointer(unsafe.SliceData(r.data))), n)
}

// Len returns the region size in bytes.
func (r *Region) Len() int {
	return len(r.data)
}

// Kind reports how the region was acquired.
func (r *Region) Kind() Kind {
	return r.kind
}

// Release returns the region to the system. Only the first call has an
// effect; later calls return ErrReleased.
func (r *Region) Release() error {
	if r.released {
		return ErrReleased
	}

	r.released = true

	var err error

	switch r.kind {
	case KindMapped:
		if uerr := r.mapped.Unmap(); uerr != nil {
			err = fmt.Errorf("unmap: %w", uerr)
		}

		if cerr := r.file.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close: %w", cerr))
		}

		r.mapped = nil
		r.file = nil
	case KindAnonymous:
		if uerr := unix.Munmap(r.data); uerr != nil {
			err = fmt.Errorf("munmap: %w", uerr)
		}
	}

	r.data = nil
	r.words = nil

	return err
}
