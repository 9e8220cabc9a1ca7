package authflow

// StrategyKind identifies a presentation mechanism.  Lower values are preferred by the Selector.
type StrategyKind int

const (
	KindIntegratedSystemSession StrategyKind = iota
	KindInAppBrowserView
	KindEmbeddedWebView
)

func (k StrategyKind) String() string {
	switch k {
	case KindIntegratedSystemSession:
		return "integrated_system_session"
	case KindInAppBrowserView:
		return "in_app_browser_view"
	case KindEmbeddedWebView:
		return "embedded_web_view"
	default:
		return "unknown"
	}
}

// PresentationStrategy is the chosen way of presenting the authentication UI.  The set of implementations is closed:
// IntegratedSystemSession, InAppBrowserView and EmbeddedWebView.
type PresentationStrategy interface {
	Kind() StrategyKind
	isPresentationStrategy()
}

// IntegratedSystemSession is an OS provided modal authentication flow.  It needs a host surface to present from.
type IntegratedSystemSession struct {
	RedirectScheme string
	Ephemeral      bool
	Anchor         Anchor
}

// InAppBrowserView is a system provided browser surface hosted by the application.  Its anchor is optional.
type InAppBrowserView struct {
	Anchor Anchor
}

// EmbeddedWebView is the app rendered browser surface.  It is the universal fallback.
type EmbeddedWebView struct{}

func (IntegratedSystemSession) Kind() StrategyKind { return KindIntegratedSystemSession }
func (InAppBrowserView) Kind() StrategyKind        { return KindInAppBrowserView }
func (EmbeddedWebView) Kind() StrategyKind         { return KindEmbeddedWebView }

func (IntegratedSystemSession) isPresentationStrategy() {}
func (InAppBrowserView) isPresentationStrategy()        {}
func (EmbeddedWebView) isPresentationStrategy()         {}
