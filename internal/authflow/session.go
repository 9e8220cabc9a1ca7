package authflow

import (
	"context"
	"net/url"
	"time"
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusStarting Status = iota
	StatusActive
	StatusCompleted
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions can happen.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// Transition records a status change.  Seq is monotonic across every session of a Controller, so transitions of
// different sessions can be ordered against each other.
type Transition struct {
	Seq    uint64
	Status Status
	At     time.Time
}

// Session is a point in time view of an authentication attempt.
type Session struct {
	ID          uint64
	Request     AuthorizationRequest
	Strategy    PresentationStrategy
	Status      Status
	CallbackURL *url.URL
	// Err is the cancellation cause, the surface's error for a completed session, or the failure detail
	Err         error
	Transitions []Transition
}

// TransitionTo returns the transition into status, if the session made it.
func (s Session) TransitionTo(status Status) (Transition, bool) {
	for _, t := range s.Transitions {
		if t.Status == status {
			return t, true
		}
	}
	return Transition{}, false
}

// session is the controller owned mutable state.  Every field is guarded by Controller.mu.
type session struct {
	id           uint64
	request      AuthorizationRequest
	strategy     PresentationStrategy
	status       Status
	callbackURL  *url.URL
	err          error
	transitions  []Transition
	presentation Presentation
	// done is closed on the terminal transition
	done chan struct{}
	// released is closed once the session no longer holds a presentation surface
	released chan struct{}
}

func (s *session) snapshot() Session {
	return Session{
		ID:          s.id,
		Request:     s.request,
		Strategy:    s.strategy,
		Status:      s.status,
		CallbackURL: s.callbackURL,
		Err:         s.err,
		Transitions: append([]Transition(nil), s.transitions...),
	}
}

// Handle is the caller's view of a started session.
type Handle struct {
	c *Controller
	s *session
}

func (h *Handle) ID() uint64 {
	return h.s.id
}

func (h *Handle) Strategy() PresentationStrategy {
	return h.s.strategy
}

func (h *Handle) Status() Status {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	return h.s.status
}

// Session returns a snapshot of the session.
func (h *Handle) Session() Session {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	return h.s.snapshot()
}

// Done is closed when the session reaches a terminal status.
func (h *Handle) Done() <-chan struct{} {
	return h.s.done
}

// Released is closed once the session's presentation surface has been dismissed.
func (h *Handle) Released() <-chan struct{} {
	return h.s.released
}

// Wait blocks until the session terminates and returns the caller visible outcome.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-h.s.done:
		return Report(h.Session())
	}
}

// Cancel cancels the session.  See Controller.Cancel.
func (h *Handle) Cancel(ctx context.Context) error {
	return h.c.Cancel(ctx, h)
}
