//go:build !windows

package supervisor

import "syscall"

// signalTerm requests cooperative shutdown of the whole process group.
// The child was started with setsid, so its pgid equals its pid.
func signalTerm(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// signalKill terminates the process group unconditionally.
func signalKill(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
