package authflow

import (
	"context"
	"fmt"

	"github.com/PizzaHomicide/webauth/internal/log"
)

// CapabilityProber reports what the environment offers.  *Prober implements it.
type CapabilityProber interface {
	Probe() CapabilitySet
}

// AnchorSource finds the window to present from.  *AnchorResolver implements it.
type AnchorSource interface {
	Resolve(required bool) (Anchor, error)
}

// SessionStarter starts sessions.  *Controller implements it.
type SessionStarter interface {
	Start(ctx context.Context, req AuthorizationRequest, strategy PresentationStrategy) (*Handle, error)
}

// Notifier receives the non-fatal warning emitted when the selector falls back to the embedded web view.
type Notifier func(w *CapabilityUnavailableWarning)

// Selector picks the presentation strategy for a request and starts it.
type Selector struct {
	prober  CapabilityProber
	anchors AnchorSource
	starter SessionStarter
	notify  Notifier
	// nativeUI false pins every request to the embedded web view
	nativeUI bool
}

type SelectorOption func(*Selector)

// WithNativeUI controls whether the system presentation mechanisms are considered at all.  With false the selector
// always picks the embedded web view, without probing and without a fallback warning.
func WithNativeUI(enabled bool) SelectorOption {
	return func(s *Selector) {
		s.nativeUI = enabled
	}
}

func NewSelector(prober CapabilityProber, anchors AnchorSource, starter SessionStarter, notify Notifier, opts ...SelectorOption) *Selector {
	s := &Selector{
		prober:   prober,
		anchors:  anchors,
		starter:  starter,
		notify:   notify,
		nativeUI: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select chooses a strategy in strict priority order: integrated system session, in-app browser view, embedded web
// view.  Only capability absence moves selection down the list.  A missing host surface for the integrated session is
// returned as ErrNoHostSurface instead of falling back, since it points at a broken environment rather than a
// capability gap.
func (s *Selector) Select(req AuthorizationRequest) (PresentationStrategy, error) {
	if !s.nativeUI {
		log.Debug("Native UI disabled, using embedded web view")
		return EmbeddedWebView{}, nil
	}

	caps := s.prober.Probe()

	if caps.HasIntegratedSystemSession {
		anchor, err := s.anchors.Resolve(true)
		if err != nil {
			log.Error("No host surface for integrated session", "error", err)
			return nil, fmt.Errorf("unable to present integrated session: %w", err)
		}
		return IntegratedSystemSession{
			RedirectScheme: req.RedirectScheme(),
			Ephemeral:      req.UseEphemeralSession(),
			Anchor:         anchor,
		}, nil
	}

	if caps.HasInAppBrowserComponent {
		anchor, err := s.anchors.Resolve(false)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve anchor for in-app browser: %w", err)
		}
		return InAppBrowserView{Anchor: anchor}, nil
	}

	warning := &CapabilityUnavailableWarning{
		Capability: "in-app browser component",
		Fallback:   KindEmbeddedWebView,
	}
	log.Warn("Falling back to embedded web view", "warning", warning.Error())
	if s.notify != nil {
		s.notify(warning)
	}
	return EmbeddedWebView{}, nil
}

// SelectAndStart selects a strategy and starts it.  Selection runs once: if the chosen strategy fails later the
// failure is reported through the session, not retried with another strategy.
func (s *Selector) SelectAndStart(ctx context.Context, req AuthorizationRequest) (*Handle, error) {
	strategy, err := s.Select(req)
	if err != nil {
		return nil, err
	}
	log.Info("Selected presentation strategy", "strategy", strategy.Kind().String())
	return s.starter.Start(ctx, req, strategy)
}
