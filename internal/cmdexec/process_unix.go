//go:build !windows

package cmdexec

import (
	"os/exec"
	"syscall"
)

// killProcessGroup kills the process group led by pid
func killProcessGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

// setProcessGroup starts the command in its own process group
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
