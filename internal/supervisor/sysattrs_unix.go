//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr detaches the child on Unix-like systems: a new session
// (setsid) drops the controlling terminal and makes the child its own process
// group leader, so it survives orchestrator exit and terminal close.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
