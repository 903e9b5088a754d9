//go:build !windows

package launch

import (
	"os/exec"
	"syscall"
)

// detach puts the worker in its own session so it survives the CLI's exit
// and never receives its terminal signals.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
