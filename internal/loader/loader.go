// Package loader makes a measurement file available as one read-only,
// contiguous byte buffer.
package loader

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

var (
	ErrOpenFailed  = errors.New("failed to open input file")
	ErrStatFailed  = errors.New("failed to stat input file")
	ErrNotRegular  = errors.New("input is not a regular file")
	ErrMapFailed   = errors.New("failed to memory-map input file")
	ErrUnmapFailed = errors.New("failed to unmap input file")
)

// Buffer is an immutable view of the input. The bytes stay valid until Close.
type Buffer struct {
	mm     mmap.MMap
	data   []byte
	closed atomic.Bool
}

// Open memory-maps path read-only. The file descriptor is closed before
// Open returns; the mapping outlives it. Empty files are not mapped.
func Open(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatFailed, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if info.Size() == 0 {
		return &Buffer{data: []byte{}}, nil
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	adviseSequential(mm)

	return &Buffer{mm: mm, data: []byte(mm)}, nil
}

// FromBytes wraps data without copying it. The caller must not modify data
// while the buffer is in use. Close is a no-op.
func FromBytes(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Mapped reports whether the buffer is backed by a file mapping.
func (b *Buffer) Mapped() bool {
	return b.mm != nil
}

// Close releases the mapping. Bytes must not be used afterwards.
// Calling Close more than once is safe.
func (b *Buffer) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.data = nil
	if b.mm == nil {
		return nil
	}
	if err := b.mm.Unmap(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmapFailed, err)
	}
	return nil
}
