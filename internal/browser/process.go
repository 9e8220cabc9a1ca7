package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/PizzaHomicide/webauth/internal/log"
	"github.com/PizzaHomicide/webauth/internal/platform"
)

// CommandFunc builds the command used to launch a browser.  Tests replace it.
type CommandFunc func(name string, args ...string) *exec.Cmd

// OpenBrowser opens the specified URL in the default browser
func OpenBrowser(url string) error {
	opener := platform.DefaultOpener()
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command(opener, "url.dll,FileProtocolHandler", url)
	} else {
		cmd = exec.Command(opener, url)
	}
	return cmd.Start()
}

// trackedProcess is a launched browser whose lifetime belongs to a presentation.
type trackedProcess struct {
	cmd    *exec.Cmd
	exited chan error
}

// launch starts the browser and watches for it to exit.
func launch(command CommandFunc, path string, args []string) (*trackedProcess, error) {
	log.Info("Launching browser", "path", path, "args", args)

	cmd := command(path, args...)
	setupBrowserProcess(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	p := &trackedProcess{cmd: cmd, exited: make(chan error, 1)}
	go func() {
		p.exited <- cmd.Wait()
		close(p.exited)
	}()
	return p, nil
}

// kill stops the browser if it is still running
func (p *trackedProcess) kill() {
	if p.cmd.Process == nil {
		return
	}
	select {
	case <-p.exited:
		return
	default:
	}
	log.Info("Stopping browser process", "pid", p.cmd.Process.Pid)
	if err := p.cmd.Process.Kill(); err != nil {
		log.Warn("Failed to stop browser process", "error", err)
	}
}
