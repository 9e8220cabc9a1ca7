package models

import (
	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/log"
	kb "github.com/PizzaHomicide/webauth/internal/ui/tui/keybindings"
	tea "github.com/charmbracelet/bubbletea"
)

// WindowRegistry is where the app registers the surfaces it draws, so logins can be anchored to them
type WindowRegistry interface {
	Put(w authflow.Window)
	Remove(id string)
	MakeKey(id string)
}

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	windows       WindowRegistry
	activeView    View
	activeModal   Modal
	width, height int

	authModel *AuthModel
	helpModel *HelpModel
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(svc LoginService, windows WindowRegistry) AppModel {
	return AppModel{
		windows:     windows,
		activeView:  ViewAuth,
		activeModal: ModalNone,
		authModel:   NewAuthModel(svc),
		helpModel:   NewHelpModel(ViewAuth),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising webauth TUI")
	return m.authModel.Init()
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			return m, tea.Quit
		case kb.ActionToggleHelp:
			log.Debug("Help requested", "active_view", m.activeView)
			if m.activeModal != ModalNone {
				m.closeModal()
			} else {
				m.openHelp()
			}
			return m, nil
		case kb.ActionBack:
			if m.activeModal != ModalNone {
				m.closeModal()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		m.authModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)

		// A sized terminal can host a login, so register it
		m.windows.Put(authflow.Window{ID: terminalWindowID, Level: authflow.LevelNormal, HasContentRoot: true})
		if m.activeModal == ModalNone {
			m.windows.MakeKey(terminalWindowID)
		}
		return m, nil
	}

	// Input goes to the modal while one is open.  Everything else still reaches the auth view so sessions keep
	// reporting underneath the help screen.
	if m.activeModal == ModalHelp {
		switch msg.(type) {
		case tea.KeyMsg, tea.MouseMsg:
			var cmd tea.Cmd
			m.helpModel, cmd = m.helpModel.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.authModel, cmd = m.authModel.Update(msg)
	return m, cmd
}

// openHelp shows the help overlay.  The overlay takes focus but cannot host a login, so logins started underneath it
// anchor to the terminal window.
func (m *AppModel) openHelp() {
	m.activeModal = ModalHelp
	m.windows.Put(authflow.Window{ID: helpWindowID, Level: authflow.LevelAlert})
	m.windows.MakeKey(helpWindowID)
}

func (m *AppModel) closeModal() {
	m.activeModal = ModalNone
	m.windows.Remove(helpWindowID)
	m.windows.MakeKey(terminalWindowID)
}

func (m AppModel) View() string {
	switch m.activeModal {
	case ModalHelp:
		return m.helpModel.View()
	}

	switch m.activeView {
	case ViewAuth:
		return m.authModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}
