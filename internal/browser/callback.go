package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PizzaHomicide/webauth/internal/log"
)

const fragmentPath = "/fragment"

// CallbackServer receives the authorization server's redirect on a loopback address.  Responses that carry their
// parameters in the URL fragment never reach the server, so the callback page posts the fragment back to it.
type CallbackServer struct {
	redirectURI url.URL
	callbacks   chan *url.URL
	httpServer  *http.Server
	listener    net.Listener
	stopOnce    sync.Once
	delivered   atomic.Bool
}

// NewCallbackServer prepares a server for an http(s) redirect URI.  Nothing listens until Start.
func NewCallbackServer(redirectURI *url.URL) (*CallbackServer, error) {
	if redirectURI == nil {
		return nil, errors.New("redirect uri is required")
	}
	if redirectURI.Scheme != "http" && redirectURI.Scheme != "https" {
		return nil, fmt.Errorf("redirect scheme %q cannot be served on loopback", redirectURI.Scheme)
	}
	if redirectURI.Port() == "" {
		return nil, fmt.Errorf("redirect uri %q has no port", redirectURI.String())
	}
	return &CallbackServer{
		redirectURI: *redirectURI,
		callbacks:   make(chan *url.URL, 1),
	}, nil
}

// Start listens on the redirect URI's host and port and serves callbacks in the background.
func (s *CallbackServer) Start() error {
	log.Info("Starting auth callback server", "addr", s.redirectURI.Host)

	path := s.redirectURI.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleCallback)
	mux.HandleFunc(fragmentPath, s.handleFragment)

	// Listen before returning so the caller learns about a taken port immediately
	listener, err := net.Listen("tcp", s.redirectURI.Host)
	if err != nil {
		log.Error("Could not listen for callbacks", "addr", s.redirectURI.Host, "error", err)
		return err
	}
	s.listener = listener
	// Port 0 asks the OS for a free port, so record the one we got
	s.redirectURI.Host = listener.Addr().String()

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Callback server error", "error", err)
		}
	}()

	return nil
}

// RedirectURI returns the redirect URI being served, with the bound port filled in.
func (s *CallbackServer) RedirectURI() *url.URL {
	u := s.redirectURI
	return &u
}

// Callbacks yields the first callback URL received.
func (s *CallbackServer) Callbacks() <-chan *url.URL {
	return s.callbacks
}

// Stop shuts the server down.  It is safe to call more than once.
func (s *CallbackServer) Stop() {
	if s.httpServer == nil {
		log.Warn("Call to Stop when callback server was not started")
		return
	}
	s.stopOnce.Do(func() {
		log.Debug("Stopping callback server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error("Callback server shutdown failed", "error", err)
			return
		}
		log.Debug("Callback server shutdown successfully")
	})
}

// deliver hands over the first callback only.  The channel has room for it, so this never blocks.
func (s *CallbackServer) deliver(u *url.URL) bool {
	if !s.delivered.CompareAndSwap(false, true) {
		log.Warn("Ignoring additional authorization callback")
		return false
	}
	s.callbacks <- u
	log.Info("Received authorization callback")
	return true
}

func (s *CallbackServer) callbackURL(rawQuery, fragment string) *url.URL {
	u := s.redirectURI
	u.RawQuery = rawQuery
	u.Fragment = fragment
	return &u
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.RawQuery == "" {
		// Parameters may be in the fragment, which only the browser can see
		writeHTML(w, fragmentPage)
		return
	}
	s.deliver(s.callbackURL(r.URL.RawQuery, ""))
	writeHTML(w, completePage)
}

func (s *CallbackServer) handleFragment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var data struct {
		Fragment string `json:"fragment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || strings.TrimSpace(data.Fragment) == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	log.Debug("Fragment decoded", "length", len(data.Fragment))

	s.deliver(s.callbackURL("", data.Fragment))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "callback received"})
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, page); err != nil {
		log.Error("Error writing callback page", "error", err)
	}
}

const completePage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>webauth</title></head>
<body>
    <h1>Authentication complete</h1>
    <p>You can close this window and return to the application.</p>
</body>
</html>`

const fragmentPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>webauth</title>
    <script>
        window.onload = function() {
            const fragment = window.location.hash.substring(1);
            if (!fragment) {
                document.body.innerHTML = "<h1>No authorization response found in the URL</h1>";
                return;
            }
            fetch("/fragment", {
                method: "POST",
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ fragment: fragment })
            }).then(response => response.json())
            .then(data => {
                document.body.innerHTML = "<h1>Authentication complete</h1><p>You can close this window and return to the application.</p>";
            }).catch((error) => {
                document.body.innerHTML = "<h1>Error returning the authorization response: " + error + "</h1>";
            });
        };
    </script>
</head>
<body>
    <h1>Processing authorization response...</h1>
</body>
</html>`
