package authflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PizzaHomicide/webauth/internal/log"
)

// Controller owns the single presentation slot.  At most one of its sessions is Starting or Active at any time and a
// session keeps the slot until its surface has been dismissed.  Hosts create one Controller per process.
//
// The host normally drives the Controller from its UI loop, but callbacks from presentation surfaces arrive on other
// goroutines, so the slot is guarded by a mutex.
type Controller struct {
	presenters Presenters
	now        func() time.Time

	// startMu serializes Start so a replacement never overlaps the session it supersedes
	startMu sync.Mutex

	mu     sync.Mutex
	active *session
	lastID uint64
	seq    uint64
}

type ControllerOption func(*Controller)

// WithClock replaces the clock used to stamp transitions.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(presenters Presenters, opts ...ControllerOption) *Controller {
	c := &Controller{
		presenters: presenters,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Active returns the session that is currently Starting or Active, or nil.
func (c *Controller) Active() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.status.IsTerminal() {
		return nil
	}
	return &Handle{c: c, s: c.active}
}

// Start presents req using strategy.  Any session holding the slot is cancelled first and its surface must be
// dismissed before the new one is shown; ctx bounds that wait.  A surface that cannot be shown leaves the returned
// session Failed rather than returning an error.
func (c *Controller) Start(ctx context.Context, req AuthorizationRequest, strategy PresentationStrategy) (*Handle, error) {
	if strategy == nil {
		return nil, errors.New("presentation strategy is required")
	}

	c.startMu.Lock()
	defer c.startMu.Unlock()

	if err := c.supersede(ctx); err != nil {
		return nil, fmt.Errorf("unable to release previous session: %w", err)
	}

	c.mu.Lock()
	c.lastID++
	s := &session{
		id:       c.lastID,
		request:  req,
		strategy: strategy,
		done:     make(chan struct{}),
		released: make(chan struct{}),
	}
	c.recordLocked(s, StatusStarting)
	c.active = s
	c.mu.Unlock()

	h := &Handle{c: c, s: s}
	logger := log.With("session_id", s.id, "strategy", strategy.Kind().String())
	logger.Info("Starting authentication session")

	pres, err := c.present(req, strategy)

	c.mu.Lock()
	if err != nil {
		if !s.status.IsTerminal() {
			c.finishLocked(s, StatusFailed, nil, err)
		}
		c.releaseLocked(s)
		c.mu.Unlock()
		logger.Error("Unable to present authentication session", "error", err)
		return h, nil
	}
	s.presentation = pres
	cancelled := s.status.IsTerminal()
	if !cancelled {
		c.recordLocked(s, StatusActive)
	}
	c.mu.Unlock()

	go c.watch(s, pres)

	if cancelled {
		// Cancelled while the surface was being shown.  It has to be gone before another session may start.
		logger.Debug("Session cancelled during start, dismissing surface")
		if err := c.teardown(ctx, s, pres); err != nil {
			return h, err
		}
		return h, nil
	}

	logger.Debug("Authentication session active")
	return h, nil
}

// Cancel moves the session to Cancelled and waits for its surface to be dismissed.  A session that has not been shown
// yet is cancelled without any teardown.  Cancelling a terminated session is a no-op.
func (c *Controller) Cancel(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	s := h.s

	c.mu.Lock()
	if s.status.IsTerminal() {
		c.mu.Unlock()
		return nil
	}
	c.finishLocked(s, StatusCancelled, nil, ErrSessionCancelled)
	pres := s.presentation
	c.mu.Unlock()

	log.Info("Cancelled authentication session", "session_id", s.id)
	return c.teardown(ctx, s, pres)
}

// supersede cancels whatever holds the slot and waits until its surface is gone.
func (c *Controller) supersede(ctx context.Context) error {
	c.mu.Lock()
	prev := c.active
	if prev == nil {
		c.mu.Unlock()
		return nil
	}
	if !prev.status.IsTerminal() {
		c.finishLocked(prev, StatusCancelled, nil, ErrSessionSuperseded)
	}
	pres := prev.presentation
	c.mu.Unlock()

	log.Info("Superseding authentication session", "session_id", prev.id)
	return c.teardown(ctx, prev, pres)
}

func (c *Controller) teardown(ctx context.Context, s *session, pres Presentation) error {
	if pres == nil {
		return nil
	}
	pres.Dismiss()
	select {
	case <-s.released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) present(req AuthorizationRequest, strategy PresentationStrategy) (Presentation, error) {
	var (
		pres Presentation
		err  error
	)
	switch st := strategy.(type) {
	case IntegratedSystemSession:
		if c.presenters.Integrated == nil {
			return nil, fmt.Errorf("%w: %s", ErrPresenterMissing, st.Kind())
		}
		pres, err = c.presenters.Integrated.ShowIntegratedSession(req.URL(), st.RedirectScheme, st.Anchor, st.Ephemeral)
	case InAppBrowserView:
		if c.presenters.InAppBrowser == nil {
			return nil, fmt.Errorf("%w: %s", ErrPresenterMissing, st.Kind())
		}
		pres, err = c.presenters.InAppBrowser.ShowInAppBrowser(req.URL(), st.Anchor)
	case EmbeddedWebView:
		if c.presenters.Embedded == nil {
			return nil, fmt.Errorf("%w: %s", ErrPresenterMissing, st.Kind())
		}
		pres, err = c.presenters.Embedded.ShowEmbeddedWebView(req.URL())
	default:
		return nil, fmt.Errorf("unsupported presentation strategy %T", strategy)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to show %s: %w", strategy.Kind(), err)
	}
	if pres == nil {
		return nil, fmt.Errorf("unable to show %s: presenter returned no surface", strategy.Kind())
	}
	return pres, nil
}

// watch consumes the surface's events until it has been dismissed, then releases the slot.
func (c *Controller) watch(s *session, pres Presentation) {
	kind := s.strategy.Kind()
	for ev := range pres.Events() {
		c.mu.Lock()
		if s.status.IsTerminal() {
			c.mu.Unlock()
			log.Debug("Ignoring event for terminated session", "session_id", s.id, "status", s.status.String())
			continue
		}
		switch {
		case ev.Err != nil:
			c.finishLocked(s, StatusCompleted, nil, &PresentationError{Strategy: kind, Err: ev.Err})
		case ev.CallbackURL == nil:
			c.finishLocked(s, StatusCompleted, nil, &PresentationError{Strategy: kind, Err: ErrPresentationDismissed})
		default:
			c.finishLocked(s, StatusCompleted, ev.CallbackURL, nil)
		}
		c.mu.Unlock()

		log.Info("Authentication session completed", "session_id", s.id, "error", ev.Err)
		pres.Dismiss()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !s.status.IsTerminal() {
		c.finishLocked(s, StatusCompleted, nil, &PresentationError{Strategy: kind, Err: ErrPresentationDismissed})
	}
	c.releaseLocked(s)
	log.Trace("Presentation surface released", "session_id", s.id)
}

func (c *Controller) recordLocked(s *session, status Status) {
	c.seq++
	s.status = status
	s.transitions = append(s.transitions, Transition{Seq: c.seq, Status: status, At: c.now()})
}

func (c *Controller) finishLocked(s *session, status Status, callbackURL *url.URL, err error) {
	s.callbackURL = callbackURL
	s.err = err
	c.recordLocked(s, status)
	close(s.done)
}

func (c *Controller) releaseLocked(s *session) {
	if c.active == s {
		c.active = nil
	}
	close(s.released)
}
