// Package fileio provides platform-specific helpers for reading bank files:
// access-pattern advice for large sequential scans and errno naming for
// I/O errors.
package fileio

import (
	"errors"
	"os"
	"syscall"
)

// Open opens path read-only and advises the kernel that it will be read
// mostly sequentially. Advice failures are ignored; they never affect reads.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	_ = adviseSequential(f)
	return f, nil
}

// Errno extracts the OS error number from err, if any.
func Errno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

// ErrnoName returns the symbolic name of the OS error carried by err (for
// example "EIO"), or "" when err carries none.
func ErrnoName(err error) string {
	errno, ok := Errno(err)
	if !ok {
		return ""
	}
	return errnoName(errno)
}
