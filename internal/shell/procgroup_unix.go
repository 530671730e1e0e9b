//go:build unix

package shell

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts cmd in its own process group and makes context
// cancellation kill the whole group, so children the shell started die
// with it.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
