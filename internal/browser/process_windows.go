//go:build windows

package browser

import (
	"os/exec"
	"syscall"
)

// setupBrowserProcess puts the browser in its own process group so console signals aimed at us do not reach it
func setupBrowserProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
