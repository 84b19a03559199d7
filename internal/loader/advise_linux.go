//go:build linux

package loader

import "golang.org/x/sys/unix"

// adviseSequential enables aggressive readahead on the mapping. Workers each
// walk their own range front to back, so sequential access holds per range.
// Best-effort: errors are ignored.
func adviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
