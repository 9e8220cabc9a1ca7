package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/log"
	"github.com/PizzaHomicide/webauth/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/webauth/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/webauth/internal/ui/tui/styles"
	"github.com/PizzaHomicide/webauth/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	startTimeout  = 30 * time.Second
	cancelTimeout = 10 * time.Second
)

// LoginService is the part of service.LoginService the auth view drives
type LoginService interface {
	Start(ctx context.Context) (*authflow.Handle, error)
	Wait(ctx context.Context, h *authflow.Handle) (authflow.Result, error)
	Cancel(ctx context.Context) error
	ClearCookies(ctx context.Context) error
}

type loginState int

const (
	stateIdle loginState = iota
	stateStarting
	stateActive
	stateFinished
)

type AuthModel struct {
	width, height int
	svc           LoginService
	now           func() time.Time

	state     loginState
	loading   *LoadingModel
	current   *authflow.Handle
	attempt   uint64 // login requests made
	latestID  uint64 // newest session seen
	startedAt time.Time
	manualURL string
	warning   string
	notice    string
	result    *authflow.Result
	err       error
}

func NewAuthModel(svc LoginService) *AuthModel {
	return &AuthModel{
		svc:     svc,
		now:     time.Now,
		loading: NewLoadingModel("Preparing login..."),
	}
}

func (m *AuthModel) Init() tea.Cmd {
	return nil
}

func (m *AuthModel) Update(msg tea.Msg) (*AuthModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextAuth) {
		case kb.ActionLogin:
			return m, m.startLogin()
		case kb.ActionCancelLogin:
			if m.state != stateStarting && m.state != stateActive {
				return m, nil
			}
			log.Info("Cancelling login on user request")
			return m, m.cancelLogin()
		case kb.ActionClearCookies:
			return m, m.clearCookies()
		}

	case LoginStartedMsg:
		// Starts race each other off the UI loop, and the newest session is the one in the slot
		if msg.Handle.ID() < m.latestID {
			log.Debug("Ignoring start of an already superseded session", "session_id", msg.Handle.ID())
			return m, nil
		}
		m.latestID = msg.Handle.ID()
		m.current = msg.Handle
		m.state = stateActive
		m.startedAt = m.now()
		m.loading.SetMessage(activeMessage(msg.Handle.Strategy().Kind()))
		return m, m.waitForLogin(msg.Handle)

	case LoginStartErrorMsg:
		if msg.Attempt != m.attempt {
			log.Debug("Ignoring start error of a replaced attempt", "attempt", msg.Attempt, "error", msg.Error)
			return m, nil
		}
		if errors.Is(msg.Error, authflow.ErrSessionCancelled) {
			log.Info("Login cancelled before it was shown")
			if m.current == nil {
				m.state = stateIdle
			}
			m.notice = "Login cancelled"
			return m, nil
		}
		log.Error("Login could not start", "error", msg.Error)
		if m.current != nil {
			// A session from an earlier attempt is still running, keep following it
			m.notice = "Login could not be restarted: " + msg.Error.Error()
			return m, nil
		}
		m.state = stateFinished
		m.result = nil
		m.err = msg.Error
		return m, nil

	case LoginFinishedMsg:
		if m.current == nil || msg.SessionID != m.current.ID() {
			log.Debug("Ignoring outcome of a replaced session", "session_id", msg.SessionID)
			return m, nil
		}
		m.current = nil
		m.state = stateFinished
		if msg.Error != nil {
			m.result, m.err = nil, msg.Error
			return m, nil
		}
		res := msg.Result
		m.result, m.err = &res, nil
		return m, nil

	case LoginCancelErrorMsg:
		log.Warn("Login cancellation did not finish cleanly", "error", msg.Error)
		m.notice = "Cancel did not complete: " + msg.Error.Error()
		return m, nil

	case CapabilityWarningMsg:
		m.warning = msg.Warning.Error()
		return m, nil

	case ManualURLMsg:
		m.manualURL = msg.URL.String()
		return m, nil

	case CookiesClearedMsg:
		if msg.Error != nil {
			m.notice = "Unable to clear cookies: " + msg.Error.Error()
		} else {
			m.notice = "Browser cookies cleared"
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateStarting && m.state != stateActive {
			return m, nil
		}
		var cmd tea.Cmd
		m.loading, cmd = m.loading.Update(msg)
		return m, cmd
	}

	return m, nil
}

// startLogin shows the starting state and starts the session off the UI loop, since starting waits for the previous
// surface to go away and may fetch the provider's discovery document
func (m *AuthModel) startLogin() tea.Cmd {
	log.Info("Starting login")
	wasIdle := m.state != stateStarting && m.state != stateActive
	m.attempt++
	attempt := m.attempt
	// The session being replaced reports a superseded outcome, which is not this attempt's result
	m.current = nil
	m.state = stateStarting
	m.manualURL = ""
	m.notice = ""
	m.result = nil
	m.err = nil
	m.loading.SetMessage("Preparing login...")

	svc := m.svc
	start := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		h, err := svc.Start(ctx)
		if err != nil {
			return LoginStartErrorMsg{Attempt: attempt, Error: err}
		}
		return LoginStartedMsg{Handle: h}
	}
	if wasIdle {
		return tea.Batch(m.loading.Init(), start)
	}
	return start
}

func (m *AuthModel) waitForLogin(h *authflow.Handle) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		res, err := svc.Wait(context.Background(), h)
		return LoginFinishedMsg{SessionID: h.ID(), Result: res, Error: err}
	}
}

func (m *AuthModel) cancelLogin() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
		defer cancel()
		if err := svc.Cancel(ctx); err != nil {
			return LoginCancelErrorMsg{Error: err}
		}
		return nil
	}
}

func (m *AuthModel) clearCookies() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
		defer cancel()
		return CookiesClearedMsg{Error: svc.ClearCookies(ctx)}
	}
}

func activeMessage(kind authflow.StrategyKind) string {
	switch kind {
	case authflow.KindIntegratedSystemSession:
		return "Waiting for you to sign in with your browser..."
	case authflow.KindInAppBrowserView:
		return "Waiting for you to sign in in the login window..."
	default:
		return "Waiting for you to sign in..."
	}
}

func (m *AuthModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.loading.Resize(min(width, 120) - 4)
}

func (m *AuthModel) View() string {
	contentWidth := min(m.width, 120)

	header := styles.Header(contentWidth, "webauth")

	var content string
	switch m.state {
	case stateStarting, stateActive:
		content = m.inProgressContent(contentWidth)
	case stateFinished:
		content = m.finishedContent(contentWidth)
	default:
		content = m.initialContent(contentWidth)
	}

	if m.warning != "" {
		content = styles.CenteredText(contentWidth-2, styles.Warning.Render("⚠ "+m.warning)) + "\n\n" + content
	}
	if m.notice != "" {
		content += "\n\n" + styles.CenteredText(contentWidth-2, styles.Muted.Render(m.notice))
	}

	mainContent := styles.ContentBox(contentWidth, content, 1)
	footer := components.KeyBindingsBar(contentWidth, m.footerBindings())

	combinedContent := lipgloss.JoinVertical(lipgloss.Center, header, mainContent, footer)
	return styles.CenteredView(m.width, m.height, combinedContent)
}

func (m *AuthModel) footerBindings() []components.KeyBinding {
	descs := map[kb.Action]string{
		kb.ActionLogin:        "login",
		kb.ActionCancelLogin:  "cancel",
		kb.ActionClearCookies: "clear cookies",
	}
	switch m.state {
	case stateStarting, stateActive:
		descs[kb.ActionLogin] = "restart"
		return components.BarFor(kb.ContextAuth, descs, kb.ActionLogin, kb.ActionCancelLogin)
	default:
		return components.BarFor(kb.ContextAuth, descs, kb.ActionLogin, kb.ActionClearCookies)
	}
}

func (m *AuthModel) initialContent(contentWidth int) string {
	content := styles.CenteredText(contentWidth-2,
		styles.Info.Render("Sign in with your identity provider."))
	content += "\n\n"

	content += styles.CenteredText(contentWidth-2,
		styles.Info.Render("The best login surface available on this system is chosen automatically:")) + "\n"
	content += styles.CenteredText(contentWidth-2,
		styles.Muted.Render("your browser, a dedicated login window, or a link to open yourself")) + "\n\n"

	content += styles.CenteredText(contentWidth-2,
		styles.Info.Render("Press 'l' to login or 'ctrl+c' to quit."))

	return content
}

func (m *AuthModel) inProgressContent(contentWidth int) string {
	var b strings.Builder
	b.WriteString(m.loading.View())

	if m.state == stateActive && m.current != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.CenteredText(contentWidth-2, styles.Muted.Render(fmt.Sprintf("session #%d • %s • %s",
			m.current.ID(), m.current.Strategy().Kind(), util.FormatElapsed(m.now().Sub(m.startedAt))))))
	}

	if m.manualURL != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.CenteredText(contentWidth-2,
			styles.Info.Render("Open the following URL in a browser to continue:")))
		b.WriteString("\n\n")
		// Shown in full so it can be copied
		b.WriteString(styles.CenteredText(contentWidth-2, styles.Url.Render(m.manualURL)))
	}

	return b.String()
}

func (m *AuthModel) finishedContent(contentWidth int) string {
	var b strings.Builder
	switch {
	case m.err != nil:
		b.WriteString(styles.CenteredText(contentWidth-2, styles.Error.Render("Login could not be started")))
		b.WriteString("\n\n")
		b.WriteString(styles.CenteredText(contentWidth-2, styles.Info.Render(m.err.Error())))
	case m.result != nil && m.result.Succeeded():
		b.WriteString(styles.CenteredText(contentWidth-2, styles.Success.Render("Login complete")))
		b.WriteString("\n\n")
		b.WriteString(styles.CenteredText(contentWidth-2, styles.Info.Render("Callback received:")))
		b.WriteString("\n")
		b.WriteString(styles.CenteredText(contentWidth-2,
			styles.Url.Render(util.TruncateString(m.result.CallbackURL.String(), contentWidth-6))))
	case m.result != nil && m.result.Failure != nil:
		b.WriteString(styles.CenteredText(contentWidth-2, styles.Error.Render(failureTitle(m.result.Failure.Reason))))
		if m.result.Failure.Detail != "" {
			b.WriteString("\n\n")
			b.WriteString(styles.CenteredText(contentWidth-2, styles.Info.Render(m.result.Failure.Detail)))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(styles.CenteredText(contentWidth-2, styles.Info.Render("Press 'l' to login again.")))
	return b.String()
}

func failureTitle(reason authflow.FailureReason) string {
	switch reason {
	case authflow.ReasonUserCancelledOrDenied:
		return "Login was cancelled or denied"
	case authflow.ReasonSupersededOrCancelled:
		return "Login cancelled"
	default:
		return "Login failed"
	}
}
