package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlowValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      nil,
			expectError: true,
			errorMsg:    "OAuth config cannot be nil",
		},
		{
			name: "missing client ID",
			config: &Config{
				AuthURL:  "https://example.com/oauth/authorize",
				TokenURL: "https://example.com/oauth/token",
			},
			expectError: true,
			errorMsg:    "client ID is required",
		},
		{
			name: "missing auth URL",
			config: &Config{
				ClientID: "test-client",
				TokenURL: "https://example.com/oauth/token",
			},
			expectError: true,
			errorMsg:    "authorization URL is required",
		},
		{
			name: "missing token URL",
			config: &Config{
				ClientID: "test-client",
				AuthURL:  "https://example.com/oauth/authorize",
			},
			expectError: true,
			errorMsg:    "token URL is required",
		},
		{
			name: "valid config with PKCE",
			config: &Config{
				ClientID: "test-client",
				AuthURL:  "https://example.com/oauth/authorize",
				TokenURL: "https://example.com/oauth/token",
				Scopes:   []string{"openid"},
				UsePKCE:  true,
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flow, err := NewFlow(tt.config)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, flow)
			assert.NotZero(t, flow.CallbackPort())
			assert.NotEmpty(t, flow.state)
			assert.NotEmpty(t, flow.codeVerifier)
			assert.NotEmpty(t, flow.codeChallenge)
		})
	}
}

func TestBuildAuthURL(t *testing.T) {
	t.Parallel()

	flow, err := NewFlow(&Config{
		ClientID: "test-client",
		AuthURL:  "https://example.com/oauth/authorize",
		TokenURL: "https://example.com/oauth/token",
		Scopes:   []string{"openid", "profile"},
		UsePKCE:  true,
	})
	require.NoError(t, err)

	authURL := flow.buildAuthURL()
	assert.Contains(t, authURL, "https://example.com/oauth/authorize")
	assert.Contains(t, authURL, "client_id=test-client")
	assert.Contains(t, authURL, "state="+flow.state)
	assert.Contains(t, authURL, "code_challenge_method=S256")
	assert.Contains(t, authURL, "code_challenge="+flow.codeChallenge)
}

// fakeJWT builds an unsigned JWT with the given claims for claim-extraction
// tests. The signature is garbage; extraction never verifies it.
func fakeJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	body := base64.RawURLEncoding.EncodeToString(payload)
	return header + "." + body + ".c2lnbmF0dXJl"
}

func TestFlowEndToEnd(t *testing.T) {
	t.Parallel()

	accessToken := fakeJWT(t, map[string]any{"sub": "urn:dla:iam:usr_1", "handle": "eric"})

	// Stub IdP with only a token endpoint; the authorize step is driven
	// directly against the callback server below.
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code-1", r.Form.Get("code"))
		assert.NotEmpty(t, r.Form.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": %q, "token_type": "Bearer", "expires_in": 3600}`, accessToken)
	}))
	defer idp.Close()

	flow, err := NewFlow(&Config{
		ClientID: "test-client",
		AuthURL:  idp.URL + "/oauth/authorize",
		TokenURL: idp.URL + "/oauth/token",
		UsePKCE:  true,
	})
	require.NoError(t, err)

	// Simulate the browser hitting the callback once the server is up.
	go func() {
		callbackURL := fmt.Sprintf("http://127.0.0.1:%d/callback?state=%s&code=auth-code-1",
			flow.CallbackPort(), flow.state)
		for i := 0; i < 50; i++ {
			resp, err := http.Get(callbackURL)
			if err == nil {
				resp.Body.Close()
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := flow.Start(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, accessToken, result.AccessToken)
	assert.Equal(t, "Bearer", result.TokenType)
	require.NotNil(t, result.Claims)
	assert.Equal(t, "eric", result.Claims["handle"])
}

func TestCallbackPagesShareTemplate(t *testing.T) {
	t.Parallel()

	flow, err := NewFlow(&Config{
		ClientID: "test-client",
		AuthURL:  "http://127.0.0.1:1/oauth/authorize",
		TokenURL: "http://127.0.0.1:1/oauth/token",
	})
	require.NoError(t, err)

	handler := &callbackHandler{flow: flow, done: make(chan callbackResult, 1)}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/callback?error=access_denied&error_description=<script>alert(1)</script>", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="status failed"`)
	// The template escapes whatever the provider echoed back.
	assert.NotContains(t, rec.Body.String(), "<script>")

	rec = httptest.NewRecorder()
	serveWaitingPage(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="status info"`)
}

func TestCallbackSecondHitDoesNotBlock(t *testing.T) {
	t.Parallel()

	flow, err := NewFlow(&Config{
		ClientID: "test-client",
		AuthURL:  "http://127.0.0.1:1/oauth/authorize",
		TokenURL: "http://127.0.0.1:1/oauth/token",
	})
	require.NoError(t, err)

	handler := &callbackHandler{flow: flow, done: make(chan callbackResult, 1)}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	res := <-handler.done
	assert.ErrorContains(t, res.err, "invalid state parameter")
}

func TestFlowRejectsStateMismatch(t *testing.T) {
	t.Parallel()

	flow, err := NewFlow(&Config{
		ClientID: "test-client",
		AuthURL:  "http://127.0.0.1:1/oauth/authorize",
		TokenURL: "http://127.0.0.1:1/oauth/token",
	})
	require.NoError(t, err)

	go func() {
		callbackURL := fmt.Sprintf("http://127.0.0.1:%d/callback?state=wrong&code=auth-code-1",
			flow.CallbackPort())
		for i := 0; i < 50; i++ {
			resp, err := http.Get(callbackURL)
			if err == nil {
				resp.Body.Close()
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = flow.Start(ctx, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid state parameter")
}

func TestFlowSurfacesProviderError(t *testing.T) {
	t.Parallel()

	flow, err := NewFlow(&Config{
		ClientID: "test-client",
		AuthURL:  "http://127.0.0.1:1/oauth/authorize",
		TokenURL: "http://127.0.0.1:1/oauth/token",
	})
	require.NoError(t, err)

	go func() {
		callbackURL := fmt.Sprintf(
			"http://127.0.0.1:%d/callback?error=access_denied&error_description=user+cancelled",
			flow.CallbackPort())
		for i := 0; i < 50; i++ {
			resp, err := http.Get(callbackURL)
			if err == nil {
				resp.Body.Close()
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = flow.Start(ctx, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestFlowContextCancellation(t *testing.T) {
	t.Parallel()

	flow, err := NewFlow(&Config{
		ClientID: "test-client",
		AuthURL:  "http://127.0.0.1:1/oauth/authorize",
		TokenURL: "http://127.0.0.1:1/oauth/token",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = flow.Start(ctx, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestExtractJWTClaims(t *testing.T) {
	t.Parallel()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		token := fakeJWT(t, map[string]any{"sub": "user-1", "email": "eric@example.com"})
		claims, err := ExtractJWTClaims(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims["sub"])
		assert.Equal(t, "eric@example.com", claims["email"])
	})

	t.Run("opaque token", func(t *testing.T) {
		t.Parallel()
		_, err := ExtractJWTClaims("not-a-jwt")
		assert.Error(t, err)
	})
}
