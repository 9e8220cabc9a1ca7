package authflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHostSurface means no window could host a session that requires one.  It is fatal to the attempt.
	ErrNoHostSurface = errors.New("no host surface available to present authentication")
	// ErrSessionSuperseded is the cancellation cause of a session replaced by a newer Start.
	ErrSessionSuperseded = errors.New("authentication session superseded by a newer session")
	// ErrSessionCancelled is the cancellation cause of a session cancelled through the API.
	ErrSessionCancelled = errors.New("authentication session cancelled")
	// ErrPresentationDismissed is reported when a surface closes without delivering a terminal event.
	ErrPresentationDismissed = errors.New("presentation dismissed without a callback")
	// ErrPresenterMissing means no presenter was wired for the chosen strategy.
	ErrPresenterMissing = errors.New("no presenter configured for strategy")
	// ErrSessionNotTerminal is returned when an outcome is requested for a session that is still running.
	ErrSessionNotTerminal = errors.New("authentication session has not terminated")
)

// CapabilityUnavailableWarning is the non-fatal notice emitted when the selector falls back to the embedded web view.
type CapabilityUnavailableWarning struct {
	Capability string
	Fallback   StrategyKind
}

func (w *CapabilityUnavailableWarning) Error() string {
	return fmt.Sprintf("%s not available, falling back to %s", w.Capability, w.Fallback)
}

// PresentationError carries a failure reported by the presentation surface itself, for example the user denying
// consent or closing the surface.
type PresentationError struct {
	Strategy StrategyKind
	Err      error
}

func (e *PresentationError) Error() string {
	return fmt.Sprintf("%s reported: %v", e.Strategy, e.Err)
}

func (e *PresentationError) Unwrap() error {
	return e.Err
}
