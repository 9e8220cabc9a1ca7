package models

import (
	"net/url"

	"github.com/PizzaHomicide/webauth/internal/authflow"
)

// LoginStartedMsg is sent once a session has been presented
type LoginStartedMsg struct {
	Handle *authflow.Handle
}

// LoginStartErrorMsg is sent when no session could be started, eg OIDC discovery failed or there was no window to
// present from
type LoginStartErrorMsg struct {
	// Attempt numbers the login request so errors from an attempt the user already replaced can be dropped
	Attempt uint64
	Error   error
}

// LoginFinishedMsg is sent when a session reaches a terminal state
type LoginFinishedMsg struct {
	SessionID uint64
	Result    authflow.Result
	Error     error
}

// LoginCancelErrorMsg is sent when cancelling did not finish cleanly
type LoginCancelErrorMsg struct {
	Error error
}

// CapabilityWarningMsg carries the warning raised when falling back to the manual view
type CapabilityWarningMsg struct {
	Warning *authflow.CapabilityUnavailableWarning
}

// ManualURLMsg asks the auth view to show the authorization URL for the user to open themselves
type ManualURLMsg struct {
	URL *url.URL
}

// CookiesClearedMsg is sent when clearing the browser profile finished
type CookiesClearedMsg struct {
	Error error
}
