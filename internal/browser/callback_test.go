package browser

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopbackRedirect(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("http://127.0.0.1:0/callback")
	require.NoError(t, err)
	return u
}

func startTestServer(t *testing.T) *CallbackServer {
	t.Helper()
	server, err := NewCallbackServer(loopbackRedirect(t))
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)
	return server
}

func receive(t *testing.T, ch <-chan *url.URL) *url.URL {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		return nil
	}
}

func get(t *testing.T, rawURL string) string {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewCallbackServerValidation(t *testing.T) {
	_, err := NewCallbackServer(nil)
	assert.Error(t, err)

	custom, _ := url.Parse("com.example.app:/oauth2redirect")
	_, err = NewCallbackServer(custom)
	assert.Error(t, err)

	noPort, _ := url.Parse("http://localhost/callback")
	_, err = NewCallbackServer(noPort)
	assert.Error(t, err)
}

func TestCallbackWithQuery(t *testing.T) {
	server := startTestServer(t)
	redirect := server.RedirectURI()
	assert.NotEqual(t, "0", redirect.Port())

	body := get(t, redirect.String()+"?code=abc&state=xyz")
	assert.Contains(t, body, "Authentication complete")

	u := receive(t, server.Callbacks())
	assert.Equal(t, "/callback", u.Path)
	assert.Equal(t, "abc", u.Query().Get("code"))
	assert.Equal(t, "xyz", u.Query().Get("state"))

	// Only the first callback counts
	get(t, redirect.String()+"?code=second")
	select {
	case extra := <-server.Callbacks():
		t.Fatalf("unexpected second callback %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCallbackWithFragment(t *testing.T) {
	server := startTestServer(t)
	redirect := server.RedirectURI()

	// Without a query the browser is handed a page that posts the fragment back
	body := get(t, redirect.String())
	assert.Contains(t, body, "window.location.hash")

	fragmentURL := "http://" + redirect.Host + fragmentPath
	resp, err := http.Post(fragmentURL, "application/json", strings.NewReader(`{"fragment":"access_token=tok&state=s"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	u := receive(t, server.Callbacks())
	assert.Equal(t, "access_token=tok&state=s", u.Fragment)
	assert.Empty(t, u.RawQuery)
}

func TestFragmentRejectsBadRequests(t *testing.T) {
	server := startTestServer(t)
	fragmentURL := "http://" + server.RedirectURI().Host + fragmentPath

	resp, err := http.Post(fragmentURL, "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(fragmentURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStopIsIdempotent(t *testing.T) {
	server, err := NewCallbackServer(loopbackRedirect(t))
	require.NoError(t, err)
	// Stopping before starting only logs
	server.Stop()

	require.NoError(t, server.Start())
	server.Stop()
	server.Stop()

	_, err = http.Get(server.RedirectURI().String() + "?code=late")
	assert.Error(t, err)
}
