//go:build !windows
// +build !windows

package fileutil

import (
	"fmt"
	"os"
	"syscall"
)

// FlockExclusive takes a write lock on f, used to serialize snapshot
// writes across processes. With nonBlocking set a held lock is an
// immediate error instead of a wait.
func FlockExclusive(f *os.File, nonBlocking bool) error {
	flags := syscall.LOCK_EX
	if nonBlocking {
		flags |= syscall.LOCK_NB
	}
	if err := syscall.Flock(int(f.Fd()), flags); err != nil {
		return fmt.Errorf("failed to acquire exclusive lock: %w", err)
	}
	return nil
}

// FlockShared takes a read lock on f. Multiple readers may hold it at
// once; a writer's exclusive lock excludes them all.
func FlockShared(f *os.File, nonBlocking bool) error {
	flags := syscall.LOCK_SH
	if nonBlocking {
		flags |= syscall.LOCK_NB
	}
	if err := syscall.Flock(int(f.Fd()), flags); err != nil {
		return fmt.Errorf("failed to acquire shared lock: %w", err)
	}
	return nil
}

// Funlock drops whichever lock f holds.
func Funlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
