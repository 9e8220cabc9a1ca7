package authflow

import (
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"
)

// recorder keeps an ordered log of what the fakes observed.
type recorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

type fakePresentation struct {
	name      string
	rec       *recorder
	events    chan Event
	once      sync.Once
	dismissed chan struct{}
	// dismissDelay postpones the dismissal callback, like a surface animating out
	dismissDelay time.Duration
}

func newFakePresentation(name string, rec *recorder, dismissDelay time.Duration) *fakePresentation {
	return &fakePresentation{
		name:         name,
		rec:          rec,
		events:       make(chan Event, 1),
		dismissed:    make(chan struct{}),
		dismissDelay: dismissDelay,
	}
}

func (p *fakePresentation) Events() <-chan Event {
	return p.events
}

func (p *fakePresentation) Dismiss() {
	p.once.Do(func() {
		close(p.dismissed)
		finish := func() {
			p.rec.add("%s closed", p.name)
			close(p.events)
		}
		if p.dismissDelay == 0 {
			finish()
			return
		}
		go func() {
			time.Sleep(p.dismissDelay)
			finish()
		}()
	})
}

func (p *fakePresentation) complete(ev Event) {
	p.events <- ev
}

type showCall struct {
	kind           StrategyKind
	url            string
	redirectScheme string
	anchor         Anchor
	ephemeral      bool
}

// fakePresenters implements every presenter interface and records each show.
type fakePresenters struct {
	mu            sync.Mutex
	rec           *recorder
	calls         []showCall
	presentations []*fakePresentation
	err           error
	dismissDelay  time.Duration
	// onShow runs inside the show call, before the surface is returned
	onShow func()
}

func newFakePresenters() *fakePresenters {
	return &fakePresenters{rec: &recorder{}}
}

func (f *fakePresenters) presenters() Presenters {
	return Presenters{Integrated: f, InAppBrowser: f, Embedded: f}
}

func (f *fakePresenters) show(call showCall) (Presentation, error) {
	if f.onShow != nil {
		f.onShow()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	name := fmt.Sprintf("%s#%d", call.kind, len(f.calls))
	f.rec.add("show %s", name)
	p := newFakePresentation(name, f.rec, f.dismissDelay)
	f.presentations = append(f.presentations, p)
	return p, nil
}

func (f *fakePresenters) ShowIntegratedSession(authURL *url.URL, redirectScheme string, anchor Anchor, ephemeral bool) (Presentation, error) {
	return f.show(showCall{
		kind:           KindIntegratedSystemSession,
		url:            authURL.String(),
		redirectScheme: redirectScheme,
		anchor:         anchor,
		ephemeral:      ephemeral,
	})
}

func (f *fakePresenters) ShowInAppBrowser(authURL *url.URL, anchor Anchor) (Presentation, error) {
	return f.show(showCall{kind: KindInAppBrowserView, url: authURL.String(), anchor: anchor})
}

func (f *fakePresenters) ShowEmbeddedWebView(authURL *url.URL) (Presentation, error) {
	return f.show(showCall{kind: KindEmbeddedWebView, url: authURL.String()})
}

func (f *fakePresenters) showCalls() []showCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]showCall(nil), f.calls...)
}

func (f *fakePresenters) presentation(t *testing.T, i int) *fakePresentation {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.presentations) {
		t.Fatalf("presentation %d was never shown", i)
	}
	return f.presentations[i]
}

type fakeEnv struct {
	version    Version
	components map[string]bool
}

func (e fakeEnv) SystemVersion() Version {
	return e.version
}

func (e fakeEnv) HasComponent(name string) bool {
	return e.components[name]
}

type fakeWindows struct {
	key     *Window
	windows []*Window
}

func (w *fakeWindows) KeyWindow() *Window {
	return w.key
}

func (w *fakeWindows) Windows() []*Window {
	return w.windows
}

type fixedCapabilities CapabilitySet

func (c fixedCapabilities) Probe() CapabilitySet {
	return CapabilitySet(c)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Failed to parse url %q: %v", raw, err)
	}
	return u
}

func newTestRequest(t *testing.T, ephemeral bool) AuthorizationRequest {
	t.Helper()
	req, err := NewAuthorizationRequest(
		mustParseURL(t, "https://id.example.com/authorize?client_id=webauth"),
		mustParseURL(t, "com.example.app:/oauth2redirect"),
		ephemeral,
	)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	return req
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
