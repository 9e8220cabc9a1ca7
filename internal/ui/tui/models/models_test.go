package models

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/platform"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSurface struct {
	events chan authflow.Event
	once   sync.Once
}

func (s *stubSurface) Events() <-chan authflow.Event { return s.events }

func (s *stubSurface) Dismiss() {
	s.once.Do(func() { close(s.events) })
}

type stubEmbedded struct{}

func (stubEmbedded) ShowEmbeddedWebView(*url.URL) (authflow.Presentation, error) {
	return &stubSurface{events: make(chan authflow.Event, 1)}, nil
}

// fakeService starts embedded sessions straight on a controller
type fakeService struct {
	t          *testing.T
	controller *authflow.Controller
	cancels    int
	cookiesErr error
}

func newFakeService(t *testing.T) *fakeService {
	return &fakeService{t: t, controller: authflow.NewController(authflow.Presenters{Embedded: stubEmbedded{}})}
}

func (f *fakeService) Start(ctx context.Context) (*authflow.Handle, error) {
	authURL, _ := url.Parse("https://id.example.com/authorize?state=1")
	redirect, _ := url.Parse("http://127.0.0.1:19331/callback")
	req, err := authflow.NewAuthorizationRequest(authURL, redirect, false)
	require.NoError(f.t, err)
	return f.controller.Start(ctx, req, authflow.EmbeddedWebView{})
}

func (f *fakeService) Wait(ctx context.Context, h *authflow.Handle) (authflow.Result, error) {
	return h.Wait(ctx)
}

func (f *fakeService) Cancel(ctx context.Context) error {
	f.cancels++
	if h := f.controller.Active(); h != nil {
		return h.Cancel(ctx)
	}
	return nil
}

func (f *fakeService) ClearCookies(context.Context) error {
	return f.cookiesErr
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestAuthModel(t *testing.T) (*AuthModel, *fakeService) {
	svc := newFakeService(t)
	m := NewAuthModel(svc)
	m.Resize(200, 50)
	return m, svc
}

func TestAppRegistersHostWindows(t *testing.T) {
	registry := platform.NewWindowRegistry()
	resolver := authflow.NewAnchorResolver(registry)
	var model tea.Model = NewAppModel(newFakeService(t), registry)

	_, err := resolver.Resolve(true)
	assert.ErrorIs(t, err, authflow.ErrNoHostSurface)

	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	require.NotNil(t, registry.KeyWindow())
	assert.Equal(t, terminalWindowID, registry.KeyWindow().ID)

	// The help overlay takes focus, but logins still anchor to the terminal
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	assert.Equal(t, ModalHelp, model.(AppModel).activeModal)
	assert.Equal(t, helpWindowID, registry.KeyWindow().ID)
	anchor, err := resolver.Resolve(true)
	require.NoError(t, err)
	assert.Equal(t, terminalWindowID, anchor.Window().ID)

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModalNone, model.(AppModel).activeModal)
	assert.Equal(t, terminalWindowID, registry.KeyWindow().ID)
	assert.Len(t, registry.Windows(), 1)
}

func TestAppRoutesSessionMessagesUnderHelp(t *testing.T) {
	registry := platform.NewWindowRegistry()
	var model tea.Model = NewAppModel(newFakeService(t), registry)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlH})

	authURL, _ := url.Parse("https://id.example.com/authorize?state=manual")
	model, _ = model.Update(ManualURLMsg{URL: authURL})
	assert.Equal(t, authURL.String(), model.(AppModel).authModel.manualURL)
}

func TestAuthModelLoginLifecycle(t *testing.T) {
	m, _ := newTestAuthModel(t)
	assert.Contains(t, m.View(), "Press 'l' to login")

	m, cmd := m.Update(runes("l"))
	require.NotNil(t, cmd)
	assert.Equal(t, stateStarting, m.state)

	// A second press while starting restarts, and its command is the start itself
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	started, ok := cmd().(LoginStartedMsg)
	require.True(t, ok)

	m, waitCmd := m.Update(started)
	require.NotNil(t, waitCmd)
	assert.Equal(t, stateActive, m.state)
	assert.Contains(t, m.View(), "embedded_web_view")

	// Cancelling tears the session down and the wait command reports it
	m, cancelCmd := m.Update(runes("c"))
	require.NotNil(t, cancelCmd)
	assert.Nil(t, cancelCmd())

	finished, ok := waitCmd().(LoginFinishedMsg)
	require.True(t, ok)
	assert.Equal(t, started.Handle.ID(), finished.SessionID)

	m, _ = m.Update(finished)
	assert.Equal(t, stateFinished, m.state)
	assert.Nil(t, m.current)
	assert.Contains(t, m.View(), "Login cancelled")
}

func TestAuthModelIgnoresReplacedSessions(t *testing.T) {
	m, svc := newTestAuthModel(t)
	ctx := context.Background()

	first, err := svc.Start(ctx)
	require.NoError(t, err)
	second, err := svc.Start(ctx)
	require.NoError(t, err)

	m.state = stateStarting
	m, _ = m.Update(LoginStartedMsg{Handle: second})
	m, cmd := m.Update(LoginStartedMsg{Handle: first})
	assert.Nil(t, cmd)
	assert.Equal(t, second.ID(), m.current.ID())

	m, _ = m.Update(LoginFinishedMsg{SessionID: first.ID(), Result: authflow.Result{Failure: &authflow.Failure{Reason: authflow.ReasonSupersededOrCancelled}}})
	assert.Equal(t, stateActive, m.state)

	callback, _ := url.Parse("http://127.0.0.1:19331/callback?code=abc")
	m, _ = m.Update(LoginFinishedMsg{SessionID: second.ID(), Result: authflow.Result{CallbackURL: callback}})
	assert.Equal(t, stateFinished, m.state)
	view := m.View()
	assert.Contains(t, view, "Login complete")
	assert.Contains(t, view, "code=abc")
}

func TestAuthModelShowsNotices(t *testing.T) {
	m, svc := newTestAuthModel(t)

	m, _ = m.Update(CapabilityWarningMsg{Warning: &authflow.CapabilityUnavailableWarning{
		Capability: "in-app browser component",
		Fallback:   authflow.KindEmbeddedWebView,
	}})
	assert.Contains(t, m.View(), "not available")

	m.state = stateStarting
	authURL, _ := url.Parse("https://id.example.com/authorize?state=manual")
	m, _ = m.Update(ManualURLMsg{URL: authURL})
	assert.Contains(t, m.View(), authURL.String())

	m, _ = m.Update(LoginStartErrorMsg{Error: errors.New("discovery failed")})
	assert.Contains(t, m.View(), "Login could not be started")
	assert.Contains(t, m.View(), "discovery failed")

	svc.cookiesErr = errors.New("profile locked")
	m, cmd := m.Update(runes("x"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Contains(t, m.View(), "profile locked")
}

func TestCancelWhenIdleDoesNothing(t *testing.T) {
	m, svc := newTestAuthModel(t)
	_, cmd := m.Update(runes("c"))
	assert.Nil(t, cmd)
	assert.Zero(t, svc.cancels)
}

func TestElapsedUsesClock(t *testing.T) {
	m, svc := newTestAuthModel(t)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	h, err := svc.Start(context.Background())
	require.NoError(t, err)
	m, _ = m.Update(LoginStartedMsg{Handle: h})

	m.now = func() time.Time { return start.Add(75 * time.Second) }
	assert.Contains(t, m.View(), "1m15s")
}

func TestAuthModelIgnoresStartErrorOfReplacedAttempt(t *testing.T) {
	m, _ := newTestAuthModel(t)

	m, _ = m.Update(runes("l"))
	m, _ = m.Update(runes("l"))
	require.Equal(t, uint64(2), m.attempt)

	m, _ = m.Update(LoginStartErrorMsg{Attempt: 1, Error: errors.New("discovery timed out")})
	assert.Equal(t, stateStarting, m.state)
	assert.NotContains(t, m.View(), "discovery timed out")

	m, _ = m.Update(LoginStartErrorMsg{Attempt: 2, Error: errors.New("discovery failed")})
	assert.Equal(t, stateFinished, m.state)
	assert.Contains(t, m.View(), "discovery failed")
}

func TestAuthModelRestartHidesSupersededOutcome(t *testing.T) {
	m, svc := newTestAuthModel(t)

	h, err := svc.Start(context.Background())
	require.NoError(t, err)
	m, _ = m.Update(LoginStartedMsg{Handle: h})
	require.Equal(t, stateActive, m.state)

	// Restart, then the replaced session reports that it was superseded before the new one is up
	m, _ = m.Update(runes("l"))
	m, _ = m.Update(LoginFinishedMsg{SessionID: h.ID(), Result: authflow.Result{Failure: &authflow.Failure{Reason: authflow.ReasonSupersededOrCancelled}}})
	assert.Equal(t, stateStarting, m.state)
	assert.NotContains(t, m.View(), "Login cancelled")

	// An error from the running start does not leave a live session behind in the view
	m, _ = m.Update(LoginStartErrorMsg{Attempt: m.attempt, Error: errors.New("no host surface")})
	assert.Equal(t, stateFinished, m.state)
}

func TestAuthModelCancelWhileStarting(t *testing.T) {
	m, _ := newTestAuthModel(t)

	m, _ = m.Update(runes("l"))
	m, cmd := m.Update(runes("c"))
	require.NotNil(t, cmd)

	m, _ = m.Update(LoginStartErrorMsg{Attempt: m.attempt, Error: authflow.ErrSessionCancelled})
	assert.Equal(t, stateIdle, m.state)
	view := m.View()
	assert.Contains(t, view, "Login cancelled")
	assert.NotContains(t, view, "Login could not be started")
}
