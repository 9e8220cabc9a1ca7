package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	kb "github.com/PizzaHomicide/webauth/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/webauth/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel displays contextual help with scrolling
type HelpModel struct {
	width, height int
	context       View
	viewport      viewport.Model
}

// NewHelpModel creates a new help model for the given context
func NewHelpModel(context View) *HelpModel {
	return &HelpModel{
		context:  context,
		viewport: viewport.New(0, 0),
	}
}

// Update handles messages
func (m *HelpModel) Update(msg tea.Msg) (*HelpModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
			return m, cmd
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
			return m, cmd
		}
	}
	return m, cmd
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width - 4    // Account for borders
	contentHeight := height - 10 // Account for header, footer, spacing

	if contentWidth < 1 {
		contentWidth = 1
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight

	m.updateContent()
}

func (m *HelpModel) updateContent() {
	m.viewport.SetContent(m.generateHelpContent())
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	header := styles.Header(m.width, "Help: "+m.getContextTitle())

	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		"",
		footer,
	)
}

func (m *HelpModel) getContextTitle() string {
	switch m.context {
	case ViewAuth:
		return "Login"
	default:
		return "General"
	}
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func (m *HelpModel) formatKeybindingSection(title string, bindings []kb.Binding, skipActions map[kb.Action]bool) string {
	if len(bindings) == 0 {
		return ""
	}

	keyText := func(binding kb.Binding) string {
		text := binding.KeyMap.Primary
		if binding.KeyMap.Secondary != "" {
			text += " or " + binding.KeyMap.Secondary
		}
		return text
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	maxKeyWidth := 0
	for _, binding := range bindings {
		if skipActions[binding.Action] {
			continue
		}
		maxKeyWidth = max(maxKeyWidth, utf8.RuneCountInString(keyText(binding)))
	}

	for _, binding := range bindings {
		if skipActions[binding.Action] {
			continue
		}
		text := keyText(binding)
		padding := strings.Repeat(" ", maxKeyWidth-utf8.RuneCountInString(text))
		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(text),
			padding,
			binding.KeyMap.Help))
	}

	return b.String()
}

// generateHelpContent builds the complete help content
func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	b.WriteString(titleStyle.Render(m.getContextTitle()))
	b.WriteString("\n\n")
	b.WriteString(m.getContextDescription())
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")

	globalBindings := m.formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal], nil)
	b.WriteString(globalBindings)

	globalActions := make(map[kb.Action]bool)
	for _, binding := range kb.ContextBindings[kb.ContextGlobal] {
		globalActions[binding.Action] = true
	}

	if m.context == ViewAuth {
		b.WriteString("\n")
		sectionTitle := fmt.Sprintf("%s commands:", m.getContextTitle())
		b.WriteString(m.formatKeybindingSection(sectionTitle, kb.ContextBindings[kb.ContextAuth], globalActions))
		b.WriteString("\n")
		b.WriteString(m.getSurfaceDetails())
	}

	return b.String()
}

// getSurfaceDetails explains the login surfaces and the order they are tried in
func (m *HelpModel) getSurfaceDetails() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	b.WriteString(titleStyle.Render("Login surfaces"))
	b.WriteString("\n\n")

	b.WriteString("• Browser session : Your default browser, or the configured browser with a throwaway profile when\n")
	b.WriteString("                    an ephemeral login is configured.  Needs this terminal to be the focused window.\n")
	b.WriteString("• Login window    : The configured browser in app mode with its own profile.  Used when the system\n")
	b.WriteString("                    is too old for a browser session.\n")
	b.WriteString("• Manual link     : The login URL is shown here for you to open.  A warning is shown when this is\n")
	b.WriteString("                    the only option left.\n\n")

	b.WriteString("Only one login runs at a time.  Starting a new one closes the previous login first.\n")

	return b.String()
}

func (m *HelpModel) getContextDescription() string {
	switch m.context {
	case ViewAuth:
		return "The login screen signs you in with your identity provider.\n\n" +
			"When you press the login key the best available login surface is opened. " +
			"After you finish signing in, the provider redirects back to webauth and the result is shown here."
	default:
		return "webauth is a terminal UI for signing in with an OAuth identity provider."
	}
}
