//go:build unix && !linux

package buffer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewAnonymous maps a private anonymous region of size bytes.
func NewAnonymous(size int) (*Region, error) {
	b, err := unix.Mmap(
		-1,
		0,
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap anonymous %d bytes: %w", size, err)
	}

	return &Region{kind: KindAnonymous, data: b}, nil
}
