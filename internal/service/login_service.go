package service

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/PizzaHomicide/webauth/internal/authflow"
	"github.com/PizzaHomicide/webauth/internal/log"
)

// LoginService is what the UI talks to.  It binds the authenticator to the configured URL source and redirect URI and
// keeps the outcomes of finished attempts.
type LoginService struct {
	auth      *authflow.Authenticator
	source    authflow.URLSource
	redirect  *url.URL
	ephemeral bool
	cookies   authflow.CookieCleaner

	historyLock sync.Mutex
	history     []authflow.Session
}

func NewLoginService(auth *authflow.Authenticator, source authflow.URLSource, redirect *url.URL, ephemeral bool, cookies authflow.CookieCleaner) *LoginService {
	return &LoginService{
		auth:      auth,
		source:    source,
		redirect:  redirect,
		ephemeral: ephemeral,
		cookies:   cookies,
	}
}

// Start begins a login, superseding any login still in progress
func (s *LoginService) Start(ctx context.Context) (*authflow.Handle, error) {
	h, err := s.auth.Begin(ctx, s.source, s.redirect, s.ephemeral)
	if err != nil {
		return nil, err
	}
	log.Info("Login session started", "session_id", h.ID(), "strategy", h.Strategy().Kind().String())
	return h, nil
}

// Wait blocks until the session ends and records it
func (s *LoginService) Wait(ctx context.Context, h *authflow.Handle) (authflow.Result, error) {
	res, err := h.Wait(ctx)
	if err != nil {
		return res, err
	}

	s.historyLock.Lock()
	s.history = append(s.history, h.Session())
	s.historyLock.Unlock()

	return res, nil
}

// Cancel cancels the login in progress, if any
func (s *LoginService) Cancel(ctx context.Context) error {
	return s.auth.Cancel(ctx)
}

// ClearCookies wipes the browser state shared between logins
func (s *LoginService) ClearCookies(ctx context.Context) error {
	if s.cookies == nil {
		return errors.New("no cookie store configured")
	}
	return s.cookies.ClearAllCookies(ctx)
}

// History returns the sessions that have finished, oldest first
func (s *LoginService) History() []authflow.Session {
	s.historyLock.Lock()
	defer s.historyLock.Unlock()
	return append([]authflow.Session(nil), s.history...)
}
