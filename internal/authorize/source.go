// Package authorize builds the authorization URL a login session is started with.
package authorize

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/PizzaHomicide/webauth/internal/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Config describes the client and the authorization server it talks to.
type Config struct {
	// Issuer enables OIDC discovery.  When set, AuthorizeURL and TokenURL are ignored.
	Issuer       string
	AuthorizeURL string
	TokenURL     string
	ClientID     string
	RedirectURI  string
	Scopes       []string
	DisablePKCE  bool
}

// Source produces a fresh authorization URL for every login attempt.  Each URL carries a new state and, unless
// disabled, a new PKCE challenge.  Exchanging the returned code is left to the caller, so neither is kept.
type Source struct {
	cfg Config

	endpointMu sync.Mutex
	endpoint   *oauth2.Endpoint
}

func NewSource(cfg Config) (*Source, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if cfg.RedirectURI == "" {
		return nil, errors.New("redirect uri is required")
	}
	if cfg.Issuer == "" && cfg.AuthorizeURL == "" {
		return nil, errors.New("either an issuer or an authorize url is required")
	}
	s := &Source{cfg: cfg}
	if cfg.Issuer == "" {
		s.endpoint = &oauth2.Endpoint{AuthURL: cfg.AuthorizeURL, TokenURL: cfg.TokenURL}
	}
	return s, nil
}

// AuthorizationURL discovers the endpoint if needed and returns a new authorization URL.
func (s *Source) AuthorizationURL(ctx context.Context) (*url.URL, error) {
	endpoint, err := s.resolveEndpoint(ctx)
	if err != nil {
		return nil, err
	}

	scopes := s.cfg.Scopes
	if len(scopes) == 0 && s.cfg.Issuer != "" {
		scopes = []string{oidc.ScopeOpenID}
	}
	oauthCfg := &oauth2.Config{
		ClientID:    s.cfg.ClientID,
		Endpoint:    endpoint,
		RedirectURL: s.cfg.RedirectURI,
		Scopes:      scopes,
	}

	var opts []oauth2.AuthCodeOption
	if !s.cfg.DisablePKCE {
		opts = append(opts, oauth2.S256ChallengeOption(oauth2.GenerateVerifier()))
	}

	raw := oauthCfg.AuthCodeURL(uuid.NewString(), opts...)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("authorization url %q is invalid: %w", raw, err)
	}

	log.Debug("Built authorization url", "host", u.Host, "pkce", !s.cfg.DisablePKCE)
	return u, nil
}

// resolveEndpoint runs OIDC discovery once and remembers the result.  A failed discovery is retried next time.
func (s *Source) resolveEndpoint(ctx context.Context) (oauth2.Endpoint, error) {
	s.endpointMu.Lock()
	defer s.endpointMu.Unlock()

	if s.endpoint != nil {
		return *s.endpoint, nil
	}

	log.Info("Discovering authorization endpoint", "issuer", s.cfg.Issuer)
	provider, err := oidc.NewProvider(ctx, s.cfg.Issuer)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	endpoint := provider.Endpoint()
	s.endpoint = &endpoint
	return endpoint, nil
}
