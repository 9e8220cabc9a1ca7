package authflow

import (
	"errors"
	"fmt"
	"net/url"
)

// AuthorizationRequest describes a single authentication attempt.  It is built once per attempt and never mutated,
// so the accessors hand out copies of the underlying URLs.
type AuthorizationRequest struct {
	url                 url.URL
	redirectURI         url.URL
	useEphemeralSession bool
}

// NewAuthorizationRequest builds a request for the given authorization URL and expected redirect URI.
func NewAuthorizationRequest(authURL, redirectURI *url.URL, useEphemeralSession bool) (AuthorizationRequest, error) {
	if authURL == nil || !authURL.IsAbs() {
		return AuthorizationRequest{}, errors.New("authorization url must be absolute")
	}
	if redirectURI == nil {
		return AuthorizationRequest{}, errors.New("redirect uri is required")
	}
	if redirectURI.Scheme == "" {
		return AuthorizationRequest{}, fmt.Errorf("redirect uri %q has no scheme", redirectURI.String())
	}
	return AuthorizationRequest{
		url:                 *authURL,
		redirectURI:         *redirectURI,
		useEphemeralSession: useEphemeralSession,
	}, nil
}

// URL returns the authorization URL the session is opened on.
func (r AuthorizationRequest) URL() *url.URL {
	u := r.url
	return &u
}

// RedirectURI returns the redirect URI the authorization server will call back on.
func (r AuthorizationRequest) RedirectURI() *url.URL {
	u := r.redirectURI
	return &u
}

// RedirectScheme is the scheme the presentation surface matches callbacks against.
func (r AuthorizationRequest) RedirectScheme() string {
	return r.redirectURI.Scheme
}

func (r AuthorizationRequest) UseEphemeralSession() bool {
	return r.useEphemeralSession
}
