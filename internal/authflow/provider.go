package authflow

import (
	"context"
	"net/url"
)

// Event is the terminal event of a presentation.  Exactly one of CallbackURL and Err is set.
type Event struct {
	CallbackURL *url.URL
	Err         error
}

// Presentation is a shown authentication surface.
type Presentation interface {
	// Events yields one terminal event and is closed once the surface has been dismissed
	Events() <-chan Event
	// Dismiss asks the surface to tear down.  It must not block and may be called more than once.
	Dismiss()
}

// IntegratedSessionPresenter shows the OS provided modal authentication session.
type IntegratedSessionPresenter interface {
	ShowIntegratedSession(authURL *url.URL, redirectScheme string, anchor Anchor, ephemeral bool) (Presentation, error)
}

// InAppBrowserPresenter shows the system browser surface hosted inside the application.
type InAppBrowserPresenter interface {
	ShowInAppBrowser(authURL *url.URL, anchor Anchor) (Presentation, error)
}

// EmbeddedWebViewPresenter shows the app rendered web view.
type EmbeddedWebViewPresenter interface {
	ShowEmbeddedWebView(authURL *url.URL) (Presentation, error)
}

// Presenters groups the capability providers a Controller presents through.  A nil presenter fails any session that
// selects its strategy.
type Presenters struct {
	Integrated   IntegratedSessionPresenter
	InAppBrowser InAppBrowserPresenter
	Embedded     EmbeddedWebViewPresenter
}

// CookieCleaner clears cookies shared with the presentation surfaces.
type CookieCleaner interface {
	ClearAllCookies(ctx context.Context) error
}

// URLSource produces the authorization URL.  It may block on the network.
type URLSource interface {
	AuthorizationURL(ctx context.Context) (*url.URL, error)
}

// URLSourceFunc adapts a function to URLSource.
type URLSourceFunc func(ctx context.Context) (*url.URL, error)

func (f URLSourceFunc) AuthorizationURL(ctx context.Context) (*url.URL, error) {
	return f(ctx)
}
