package tui

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/authorize"
	"github.com/PizzaHomicide/webauth/internal/browser"
	"github.com/PizzaHomicide/webauth/internal/config"
	"github.com/PizzaHomicide/webauth/internal/log"
	"github.com/PizzaHomicide/webauth/internal/platform"
	"github.com/PizzaHomicide/webauth/internal/service"
	"github.com/PizzaHomicide/webauth/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

func Run(cfg *config.Config) error {
	var p *tea.Program
	// Presenters and the selector report from worker goroutines, the program serialises them onto the UI loop
	send := func(msg tea.Msg) {
		if p != nil {
			p.Send(msg)
		}
	}

	app, err := build(cfg, platform.NewEnvironment(cfg.Platform.SystemVersion), send)
	if err != nil {
		return err
	}

	p = tea.NewProgram(models.NewAppModel(app.login, app.windows), tea.WithAltScreen())
	_, err = p.Run()

	// Close any login window left open
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := app.login.Cancel(ctx); cerr != nil {
		log.Warn("Unable to close login on exit", "error", cerr)
	}
	return err
}

type application struct {
	login   *service.LoginService
	windows *platform.WindowRegistry
}

// build wires the login stack from the config
func build(cfg *config.Config, env authflow.Environment, send func(tea.Msg)) (*application, error) {
	redirect, err := url.Parse(cfg.Auth.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect uri: %w", err)
	}

	source, err := authorize.NewSource(authorize.Config{
		Issuer:       cfg.Auth.Issuer,
		AuthorizeURL: cfg.Auth.AuthorizeURL,
		TokenURL:     cfg.Auth.TokenURL,
		ClientID:     cfg.Auth.ClientID,
		RedirectURI:  cfg.Auth.RedirectURI,
		Scopes:       cfg.Auth.Scopes,
		DisablePKCE:  cfg.Auth.DisablePKCE,
	})
	if err != nil {
		return nil, err
	}

	proberCfg, err := proberConfig(cfg)
	if err != nil {
		return nil, err
	}

	browserCfg := browser.Config{
		RedirectURI:   redirect,
		BrowserPath:   cfg.Browser.Path,
		BrowserArgs:   cfg.Browser.Args,
		EphemeralArgs: cfg.Browser.EphemeralArgs,
	}
	profile := browser.NewProfileStore(cfg.Browser.ProfileDir)
	presenters := authflow.Presenters{
		Integrated:   browser.NewSystemSession(browserCfg),
		InAppBrowser: browser.NewAppWindow(browserCfg, profile),
		Embedded: browser.NewManualView(browserCfg, func(u *url.URL) {
			send(models.ManualURLMsg{URL: u})
		}),
	}

	windows := platform.NewWindowRegistry()
	controller := authflow.NewController(presenters)
	selector := authflow.NewSelector(
		authflow.NewProber(env, proberCfg),
		authflow.NewAnchorResolver(windows),
		controller,
		func(w *authflow.CapabilityUnavailableWarning) {
			send(models.CapabilityWarningMsg{Warning: w})
		},
		authflow.WithNativeUI(cfg.Auth.UseNativeUI()),
	)

	var opts []authflow.AuthenticatorOption
	if cfg.Auth.ClearCookies {
		opts = append(opts, authflow.WithCookieClearing(profile))
	}
	auth := authflow.NewAuthenticator(selector, controller, opts...)

	return &application{
		login:   service.NewLoginService(auth, source, redirect, cfg.Auth.Ephemeral, profile),
		windows: windows,
	}, nil
}

// proberConfig maps the platform settings onto capability gates.  The in-app browser is the configured browser, and
// the integrated session needs the system's URL opener.
func proberConfig(cfg *config.Config) (authflow.ProberConfig, error) {
	pc := authflow.DefaultProberConfig(cfg.Browser.Path)
	pc.IntegratedSessionComponent = platform.DefaultOpener()

	if v := cfg.Platform.IntegratedMinVersion; v != "" {
		parsed, err := authflow.ParseVersion(v)
		if err != nil {
			return pc, fmt.Errorf("invalid platform.integrated_min_version: %w", err)
		}
		pc.IntegratedSessionMinVersion = parsed
	}
	if v := cfg.Platform.InAppBrowserMinVersion; v != "" {
		parsed, err := authflow.ParseVersion(v)
		if err != nil {
			return pc, fmt.Errorf("invalid platform.in_app_browser_min_version: %w", err)
		}
		pc.InAppBrowserMinVersion = parsed
	}
	return pc, nil
}
