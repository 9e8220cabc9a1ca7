package authflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/PizzaHomicide/webauth/internal/log"
)

// Authenticator runs a complete attempt: optional cookie hygiene, the authorization URL fetch, strategy selection and
// session start.
type Authenticator struct {
	selector     *Selector
	controller   *Controller
	cookies      CookieCleaner
	clearCookies bool

	// pending holds the attempts that have not yet handed their session to the controller
	pendingMu   sync.Mutex
	pending     map[uint64]context.CancelCauseFunc
	lastAttempt uint64
}

type AuthenticatorOption func(*Authenticator)

// WithCookieClearing clears all cookies before each attempt.
func WithCookieClearing(cleaner CookieCleaner) AuthenticatorOption {
	return func(a *Authenticator) {
		a.cookies = cleaner
		a.clearCookies = cleaner != nil
	}
}

func NewAuthenticator(selector *Selector, controller *Controller, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		selector:   selector,
		controller: controller,
		pending:    make(map[uint64]context.CancelCauseFunc),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Begin fetches the authorization URL from src and starts a session for it.  The fetch is the only place the attempt
// blocks; selection does not run until it resolves.  An attempt cancelled before its session exists returns
// ErrSessionCancelled and shows nothing.
func (a *Authenticator) Begin(ctx context.Context, src URLSource, redirectURI *url.URL, ephemeral bool) (*Handle, error) {
	attemptCtx, id := a.track(ctx)
	defer a.untrack(id)

	if a.clearCookies {
		if err := a.cookies.ClearAllCookies(attemptCtx); err != nil {
			// Stale cookies only affect which account the provider offers, so the attempt carries on
			log.Warn("Unable to clear cookies before login", "error", err)
		}
	}

	authURL, err := src.AuthorizationURL(attemptCtx)
	if cancelled(attemptCtx) {
		log.Info("Login attempt cancelled before presentation", "attempt", id)
		return nil, ErrSessionCancelled
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch authorization url: %w", err)
	}

	req, err := NewAuthorizationRequest(authURL, redirectURI, ephemeral)
	if err != nil {
		return nil, err
	}
	h, err := a.selector.SelectAndStart(attemptCtx, req)
	if cancelled(attemptCtx) {
		// Cancel raced the start.  The session may already be on screen, so take it down again.
		if h != nil {
			if cerr := h.Cancel(ctx); cerr != nil {
				log.Error("Unable to dismiss cancelled session", "session_id", h.ID(), "error", cerr)
			}
		}
		return nil, ErrSessionCancelled
	}
	return h, err
}

func (a *Authenticator) track(ctx context.Context) (context.Context, uint64) {
	attemptCtx, cancel := context.WithCancelCause(ctx)
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	a.lastAttempt++
	a.pending[a.lastAttempt] = cancel
	return attemptCtx, a.lastAttempt
}

func (a *Authenticator) untrack(id uint64) {
	a.pendingMu.Lock()
	cancel := a.pending[id]
	delete(a.pending, id)
	a.pendingMu.Unlock()
	if cancel != nil {
		cancel(nil)
	}
}

func cancelled(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSessionCancelled)
}

// Authenticate begins an attempt and waits for its outcome.
func (a *Authenticator) Authenticate(ctx context.Context, src URLSource, redirectURI *url.URL, ephemeral bool) (Result, error) {
	h, err := a.Begin(ctx, src, redirectURI, ephemeral)
	if err != nil {
		return Result{}, err
	}
	return h.Wait(ctx)
}

// Cancel cancels the active session and any attempt still fetching its authorization URL.
func (a *Authenticator) Cancel(ctx context.Context) error {
	a.pendingMu.Lock()
	for _, cancel := range a.pending {
		cancel(ErrSessionCancelled)
	}
	a.pendingMu.Unlock()

	h := a.controller.Active()
	if h == nil {
		return nil
	}
	return h.Cancel(ctx)
}
