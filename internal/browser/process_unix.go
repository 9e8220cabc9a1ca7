//go:build !windows

package browser

import (
	"os/exec"
	"syscall"
)

// setupBrowserProcess puts the browser in its own process group so terminal signals aimed at us do not reach it
func setupBrowserProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
