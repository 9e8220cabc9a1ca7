package models

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadingModel displays a spinner with a message, and optional context underneath
type LoadingModel struct {
	width       int
	message     string
	contextInfo string
	spinner     spinner.Model
}

// NewLoadingModel creates a new loading model with the required message
func NewLoadingModel(message string) *LoadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &LoadingModel{
		message: message,
		spinner: s,
	}
}

// WithContextInfo adds additional context information
func (m *LoadingModel) WithContextInfo(info string) *LoadingModel {
	m.contextInfo = info
	return m
}

// SetMessage replaces the primary message, keeping the spinner running
func (m *LoadingModel) SetMessage(message string) {
	m.message = message
}

func (m *LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *LoadingModel) Update(msg tea.Msg) (*LoadingModel, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner block, sized for the content box it sits in
func (m *LoadingModel) View() string {
	spinnerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9D86FF")).
		Bold(true).
		PaddingRight(1)

	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true)

	centerStyle := lipgloss.NewStyle().
		Width(m.width).
		Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString(centerStyle.Render(spinnerStyle.Render(m.spinner.View()) + " " + messageStyle.Render(m.message)))

	if m.contextInfo != "" {
		contextStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Italic(true).
			Width(m.width).
			Align(lipgloss.Center)

		b.WriteString("\n\n")
		b.WriteString(contextStyle.Render(m.contextInfo))
	}

	return b.String()
}

// Resize sets the width the block is centered in
func (m *LoadingModel) Resize(width int) {
	m.width = width
}
