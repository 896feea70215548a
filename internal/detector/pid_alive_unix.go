//go:build !windows

package detector

import (
	"errors"
	"syscall"
)

// pidAlive returns true if a process with the given pid exists (or EPERM)
// and is not a zombie left behind by a quickly-exiting detached child.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if isZombie(pid) {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
