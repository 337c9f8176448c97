//go:build !unix

package fileio

import "syscall"

func errnoName(errno syscall.Errno) string { return errno.Error() }
