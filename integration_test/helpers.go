package integration_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"rosterd/core"
	"rosterd/core/providers"
	"rosterd/storage"

	"github.com/stretchr/testify/require"
)

// stack is a fully wired rosterd server talking to a mock Battle.net.
type stack struct {
	app       *httptest.Server
	battleNet *MockBattleNet
	config    *core.Config
}

func newStack(t *testing.T, strategy string) *stack {
	t.Helper()

	battleNet := NewMockBattleNet()
	t.Cleanup(battleNet.Close)

	config := &core.Config{
		Strategy:      strategy,
		JWTSecret:     "integration-test-secret",
		EncryptionKey: "12345678901234567890123456789012",
	}
	config.ApplyDefaults()

	provider := providers.NewBattleNetProvider(&providers.BattleNetConfig{
		ClientID:     "test_client",
		ClientSecret: "test_secret",
		RedirectURI:  "http://localhost/callback",
		OAuthBaseURL: battleNet.URL(),
		APIBaseURL:   battleNet.URL(),
		Namespace:    "profile-us",
		Locale:       "en_US",
		Scope:        "openid wow.profile",
	})

	store := storage.NewMemoryStore()
	groups := storage.NewMockGroupStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var creds core.Credentials
	if strategy == core.StrategySession {
		crypto, err := core.NewCryptoService(config.EncryptionKey)
		require.NoError(t, err)
		creds = core.NewSessionCredentials(store, crypto, config)
	} else {
		creds = core.NewTokenCredentials(config)
	}

	authService := core.NewAuthService(provider, creds, store, config, logger)
	aggregator := core.NewAggregator(provider, config, logger)
	server := core.NewServer(authService, creds, aggregator, groups, config, logger)

	mux := http.NewServeMux()
	server.Routes(mux)

	app := httptest.NewServer(mux)
	t.Cleanup(app.Close)

	return &stack{
		app:       app,
		battleNet: battleNet,
		config:    config,
	}
}

// noRedirectClient returns a client that surfaces redirects instead of
// following them, so tests can inspect Location headers and cookies.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// beginLogin drives /auth/login and returns the state from the provider
// redirect.
func beginLogin(t *testing.T, s *stack) string {
	t.Helper()

	resp, err := noRedirectClient().Get(s.app.URL + "/auth/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	return state
}

// completeLogin drives /callback with the given code and state and returns
// the raw response for inspection.
func completeLogin(t *testing.T, s *stack, code, state string) *http.Response {
	t.Helper()

	resp, err := noRedirectClient().Get(s.app.URL + "/callback?code=" + code + "&state=" + state)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

// loginArtifact runs the full login flow for the token strategy and returns
// the credential from the redirect.
func loginArtifact(t *testing.T, s *stack) string {
	t.Helper()

	state := beginLogin(t, s)
	resp := completeLogin(t, s, "abc123", state)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location := resp.Header.Get("Location")
	prefix := s.config.PostLoginRedirect + "?token="
	require.Contains(t, location, prefix)

	return location[len(prefix):]
}

// loginCookie runs the full login flow for the session strategy and returns
// the session cookie.
func loginCookie(t *testing.T, s *stack) *http.Cookie {
	t.Helper()

	state := beginLogin(t, s)
	resp := completeLogin(t, s, "abc123", state)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == core.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie in callback response")
	return nil
}

func getProfile(t *testing.T, s *stack, authorize func(*http.Request)) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.app.URL+"/api/profile", nil)
	require.NoError(t, err)
	authorize(req)

	resp, err := s.app.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}
