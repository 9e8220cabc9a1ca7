package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/log"
)

// Config holds what the desktop presenters need to know about the browser.
type Config struct {
	// RedirectURI is served on loopback by every presenter
	RedirectURI *url.URL
	// BrowserPath is the Chromium style browser used for app windows and ephemeral sessions
	BrowserPath string
	// BrowserArgs are extra arguments for every launch of BrowserPath
	BrowserArgs string
	// EphemeralArgs are added when an ephemeral session is requested
	EphemeralArgs string
}

// SystemSession presents the integrated session: the user's default browser, or BrowserPath in a throwaway profile
// when the session is ephemeral.
type SystemSession struct {
	cfg     Config
	open    func(url string) error
	command CommandFunc
}

func NewSystemSession(cfg Config) *SystemSession {
	return &SystemSession{cfg: cfg, open: OpenBrowser, command: exec.Command}
}

func (s *SystemSession) ShowIntegratedSession(authURL *url.URL, redirectScheme string, anchor authflow.Anchor, ephemeral bool) (authflow.Presentation, error) {
	if anchor.IsZero() {
		return nil, authflow.ErrNoHostSurface
	}
	if redirectScheme != s.cfg.RedirectURI.Scheme {
		return nil, fmt.Errorf("redirect scheme %q does not match served redirect uri %q", redirectScheme, s.cfg.RedirectURI.String())
	}

	server, err := startServer(s.cfg.RedirectURI)
	if err != nil {
		return nil, err
	}
	logger := log.With("surface", "system_session", "window", anchor.Window().ID)

	if ephemeral && s.cfg.BrowserPath != "" {
		profileDir, err := os.MkdirTemp("", "webauth-ephemeral-")
		if err != nil {
			server.Stop()
			return nil, fmt.Errorf("unable to create ephemeral profile: %w", err)
		}
		args := append(ParseArgs(s.cfg.BrowserArgs), ParseArgs(s.cfg.EphemeralArgs)...)
		args = append(args, "--user-data-dir="+profileDir, authURL.String())
		proc, err := launch(s.command, s.cfg.BrowserPath, args)
		if err != nil {
			server.Stop()
			_ = os.RemoveAll(profileDir)
			return nil, err
		}
		logger.Info("Opened ephemeral browser session")
		return newPresentation("system_session", server, proc.exited, func() {
			proc.kill()
			if err := os.RemoveAll(profileDir); err != nil {
				log.Warn("Failed to remove ephemeral profile", "dir", profileDir, "error", err)
			}
		}), nil
	}

	if ephemeral {
		logger.Warn("Default browser cannot isolate cookies, ephemeral session not honoured")
	}
	if err := s.open(authURL.String()); err != nil {
		server.Stop()
		return nil, fmt.Errorf("unable to open default browser: %w", err)
	}
	logger.Info("Opened authorization url in default browser")
	// The default browser is not ours to close, so dismissal only stops listening
	return newPresentation("system_session", server, nil, nil), nil
}

// AppWindow presents the in-app browser view: BrowserPath in app mode, showing a single page without browser chrome,
// using the shared profile.
type AppWindow struct {
	cfg     Config
	profile *ProfileStore
	command CommandFunc
}

func NewAppWindow(cfg Config, profile *ProfileStore) *AppWindow {
	return &AppWindow{cfg: cfg, profile: profile, command: exec.Command}
}

func (a *AppWindow) ShowInAppBrowser(authURL *url.URL, anchor authflow.Anchor) (authflow.Presentation, error) {
	if a.cfg.BrowserPath == "" {
		return nil, errors.New("no browser configured for the in-app browser window")
	}
	profileDir, err := a.profile.Dir()
	if err != nil {
		return nil, err
	}

	server, err := startServer(a.cfg.RedirectURI)
	if err != nil {
		return nil, err
	}

	args := append(ParseArgs(a.cfg.BrowserArgs), "--user-data-dir="+profileDir, "--app="+authURL.String())
	proc, err := launch(a.command, a.cfg.BrowserPath, args)
	if err != nil {
		server.Stop()
		return nil, err
	}
	if w := anchor.Window(); w != nil {
		log.Info("Opened in-app browser window", "window", w.ID)
	} else {
		log.Info("Opened in-app browser window without a host window")
	}
	return newPresentation("app_window", server, proc.exited, proc.kill), nil
}

// ManualView is the embedded fallback.  It hands the URL to the host UI, which renders it for the user to open, and
// waits for the redirect like the other presenters.
type ManualView struct {
	cfg     Config
	display func(authURL *url.URL)
}

func NewManualView(cfg Config, display func(authURL *url.URL)) *ManualView {
	return &ManualView{cfg: cfg, display: display}
}

func (m *ManualView) ShowEmbeddedWebView(authURL *url.URL) (authflow.Presentation, error) {
	server, err := startServer(m.cfg.RedirectURI)
	if err != nil {
		return nil, err
	}
	if m.display != nil {
		m.display(authURL)
	}
	log.Info("Displaying authorization url for manual login")
	return newPresentation("manual_view", server, nil, nil), nil
}

func startServer(redirectURI *url.URL) (*CallbackServer, error) {
	server, err := NewCallbackServer(redirectURI)
	if err != nil {
		return nil, err
	}
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("unable to listen for callback: %w", err)
	}
	return server, nil
}
