package platform

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/log"
)

// Environment is the desktop host as seen by the capability prober.  Components are executables resolved on PATH.
type Environment struct {
	version  authflow.Version
	lookPath func(string) (string, error)
}

// NewEnvironment builds an Environment.  versionOverride, when set, replaces the detected system version.
func NewEnvironment(versionOverride string) *Environment {
	return &Environment{
		version:  resolveVersion(versionOverride),
		lookPath: exec.LookPath,
	}
}

func (e *Environment) SystemVersion() authflow.Version {
	return e.version
}

func (e *Environment) HasComponent(name string) bool {
	path, err := e.lookPath(name)
	if err != nil {
		log.Debug("Component not resolvable", "component", name, "error", err)
		return false
	}
	log.Trace("Component resolved", "component", name, "path", path)
	return true
}

func resolveVersion(override string) authflow.Version {
	raw := override
	if raw == "" {
		raw = DetectSystemVersion()
	}
	if raw == "" {
		log.Warn("Unable to determine system version, assuming 0.0")
		return authflow.Version{}
	}
	v, err := authflow.ParseVersion(raw)
	if err != nil {
		log.Warn("Unable to parse system version, assuming 0.0", "version", raw, "error", err)
		return authflow.Version{}
	}
	return v
}

// DetectSystemVersion returns the raw OS version string, or "" when it cannot be determined.
func DetectSystemVersion() string {
	switch runtime.GOOS {
	case "linux":
		data, err := os.ReadFile("/proc/sys/kernel/osrelease")
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	case "darwin":
		out, err := exec.Command("sw_vers", "-productVersion").Output()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	default:
		return ""
	}
}

// DefaultOpener returns the executable used to open URLs in the user's default browser.
func DefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "rundll32"
	default:
		return "xdg-open"
	}
}
