//go:build !windows

package extractor

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the child as a group leader and makes context
// cancellation signal the whole group.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
