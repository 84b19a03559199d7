//go:build !linux

package loader

// adviseSequential is a no-op on non-Linux platforms.
func adviseSequential(data []byte) {}
