//go:build !windows

package lock

import (
	"errors"
	"os"
	"syscall"
)

// processExists reports whether pid names a live process on this host.
// Signal 0 performs the permission and existence checks without delivering
// anything; EPERM still means the process is alive.
func processExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
