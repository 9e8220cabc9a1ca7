package tui

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/config"
	"github.com/PizzaHomicide/webauth/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oldSystem has no usable components and predates every capability gate
type oldSystem struct{}

func (oldSystem) SystemVersion() authflow.Version { return authflow.Version{Major: 1} }
func (oldSystem) HasComponent(string) bool        { return false }

type sink struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *sink) send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *sink) all() []tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tea.Msg(nil), s.msgs...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return &config.Config{
		Auth: config.AuthConfig{
			AuthorizeURL: "https://id.example.com/authorize",
			ClientID:     "webauth",
			RedirectURI:  "http://" + addr + "/callback",
		},
		Browser: config.BrowserConfig{
			Path:       "chromium",
			ProfileDir: t.TempDir(),
		},
		Platform: config.PlatformConfig{
			IntegratedMinVersion:   "13.0",
			InAppBrowserMinVersion: "9.0",
		},
	}
}

func TestBuildFallsBackToManualView(t *testing.T) {
	cfg := testConfig(t)
	s := &sink{}
	app, err := build(cfg, oldSystem{}, s.send)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := app.login.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, authflow.KindEmbeddedWebView, h.Strategy().Kind())

	msgs := s.all()
	require.Len(t, msgs, 2)
	warning, ok := msgs[0].(models.CapabilityWarningMsg)
	require.True(t, ok)
	assert.Equal(t, authflow.KindEmbeddedWebView, warning.Warning.Fallback)
	manual, ok := msgs[1].(models.ManualURLMsg)
	require.True(t, ok)
	assert.Equal(t, "webauth", manual.URL.Query().Get("client_id"))
	assert.NotEmpty(t, manual.URL.Query().Get("state"))

	resp, err := http.Get(cfg.Auth.RedirectURI + "?code=abc")
	require.NoError(t, err)
	resp.Body.Close()

	res, err := app.login.Wait(ctx, h)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
}

// newSystem offers every capability
type newSystem struct{}

func (newSystem) SystemVersion() authflow.Version { return authflow.Version{Major: 99} }
func (newSystem) HasComponent(string) bool        { return true }

func TestBuildNativeUIDisabled(t *testing.T) {
	cfg := testConfig(t)
	disabled := false
	cfg.Auth.NativeUI = &disabled
	s := &sink{}
	app, err := build(cfg, newSystem{}, s.send)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := app.login.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, authflow.KindEmbeddedWebView, h.Strategy().Kind())

	// No fallback warning, only the login URL
	msgs := s.all()
	require.Len(t, msgs, 1)
	_, ok := msgs[0].(models.ManualURLMsg)
	assert.True(t, ok)

	require.NoError(t, app.login.Cancel(ctx))
	res, err := app.login.Wait(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, authflow.ReasonSupersededOrCancelled, res.Failure.Reason)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.ClientID = ""
	_, err := build(cfg, oldSystem{}, func(tea.Msg) {})
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Platform.InAppBrowserMinVersion = "latest"
	_, err = build(cfg, oldSystem{}, func(tea.Msg) {})
	assert.ErrorContains(t, err, "in_app_browser_min_version")
}

func TestProberConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Platform.IntegratedMinVersion = "14.2"

	pc, err := proberConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, authflow.Version{Major: 14, Minor: 2}, pc.IntegratedSessionMinVersion)
	assert.Equal(t, authflow.Version{Major: 9}, pc.InAppBrowserMinVersion)
	assert.Equal(t, "chromium", pc.InAppBrowserComponent)
	assert.NotEmpty(t, pc.IntegratedSessionComponent)
}
