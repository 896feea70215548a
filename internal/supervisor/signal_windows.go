//go:build windows

package supervisor

import "os"

// Windows has no catchable termination signal for detached children; both the
// graceful and the forceful path terminate the process outright.
func signalTerm(pid int) error { return terminate(pid) }

func signalKill(pid int) error { return terminate(pid) }

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return p.Kill()
}
