package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalayer/datalayer-go/pkg/auth/tokenstore"
	"github.com/datalayer/datalayer-go/pkg/config"
	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

// memStore is an in-memory credential store for tests.
type memStore struct {
	cred *tokenstore.Credential
}

func (s *memStore) Save(cred tokenstore.Credential) error {
	s.cred = &cred
	return nil
}

func (s *memStore) Load() (*tokenstore.Credential, error) {
	if s.cred == nil {
		return nil, tokenstore.ErrNoCredentials
	}
	return s.cred, nil
}

func (s *memStore) Delete() error {
	s.cred = nil
	return nil
}

func testConfig(iamURL string) *config.Config {
	return &config.Config{
		RunURL: iamURL,
		IAMURL: iamURL,
	}
}

func TestResolveToken(t *testing.T) {
	t.Run("explicit token wins", func(t *testing.T) {
		store := &memStore{cred: &tokenstore.Credential{Token: "stored"}}
		m := NewManagerWithStore(testConfig("http://iam"), "explicit", store)

		token, err := m.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "explicit", token)
	})

	t.Run("env var beats stored", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "from-env")
		store := &memStore{cred: &tokenstore.Credential{Token: "stored"}}
		m := NewManagerWithStore(testConfig("http://iam"), "", store)

		token, err := m.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "from-env", token)
	})

	t.Run("legacy env var honored", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "")
		t.Setenv(LegacyTokenEnvVar, "legacy")
		m := NewManagerWithStore(testConfig("http://iam"), "", &memStore{})

		token, err := m.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "legacy", token)
	})

	t.Run("stored credential", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "")
		t.Setenv(LegacyTokenEnvVar, "")
		store := &memStore{cred: &tokenstore.Credential{Token: "stored"}}
		m := NewManagerWithStore(testConfig("http://iam"), "", store)

		token, err := m.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "stored", token)
	})

	t.Run("empty chain is unauthenticated", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "")
		t.Setenv(LegacyTokenEnvVar, "")
		m := NewManagerWithStore(testConfig("http://iam"), "", &memStore{})

		_, err := m.ResolveToken()
		require.Error(t, err)
		assert.True(t, dlyerr.IsUnauthenticated(err))
	})
}

func TestLoginStoresCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/iam/v1/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["handle"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "fresh-token",
			"user":    map[string]any{"handle_s": "alice"},
		})
	}))
	defer srv.Close()

	store := &memStore{}
	m := NewManagerWithStore(testConfig(srv.URL), "", store)

	result, err := m.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", result.Token)

	require.NotNil(t, store.cred)
	assert.Equal(t, "fresh-token", store.cred.Token)
	assert.Equal(t, "alice", store.cred.Handle)
}

func TestLoginWithToken(t *testing.T) {
	t.Run("validates against whoami and stores", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/iam/v1/whoami", r.URL.Path)
			assert.Equal(t, "Bearer pat-123", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"profile": map[string]any{"handle_s": "bob"},
			})
		}))
		defer srv.Close()

		store := &memStore{}
		m := NewManagerWithStore(testConfig(srv.URL), "", store)

		user, err := m.LoginWithToken(context.Background(), "pat-123")
		require.NoError(t, err)
		assert.Equal(t, "bob", user.Handle)

		require.NotNil(t, store.cred)
		assert.Equal(t, "pat-123", store.cred.Token)
	})

	t.Run("rejects empty token", func(t *testing.T) {
		m := NewManagerWithStore(testConfig("http://iam"), "", &memStore{})
		_, err := m.LoginWithToken(context.Background(), "")
		require.Error(t, err)
		assert.True(t, dlyerr.IsInvalidArgument(err))
	})

	t.Run("invalid token is not stored", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		store := &memStore{}
		m := NewManagerWithStore(testConfig(srv.URL), "", store)

		_, err := m.LoginWithToken(context.Background(), "bad-token")
		require.Error(t, err)
		assert.True(t, dlyerr.IsUnauthenticated(err))
		assert.Nil(t, store.cred)
	})
}

func TestLogout(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	t.Setenv(LegacyTokenEnvVar, "")

	serverCalled := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverCalled = true
		require.Equal(t, "/api/iam/v1/logout", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	store := &memStore{cred: &tokenstore.Credential{Token: "tok"}}
	m := NewManagerWithStore(testConfig(srv.URL), "", store)

	require.NoError(t, m.Logout(context.Background()))
	assert.True(t, serverCalled)
	assert.Nil(t, store.cred)
}

func TestLogoutWithoutCredential(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	t.Setenv(LegacyTokenEnvVar, "")

	m := NewManagerWithStore(testConfig("http://iam"), "", &memStore{})
	require.NoError(t, m.Logout(context.Background()))
}

func TestWhoamiRequiresCredential(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	t.Setenv(LegacyTokenEnvVar, "")

	m := NewManagerWithStore(testConfig("http://iam"), "", &memStore{})
	_, err := m.Whoami(context.Background())
	require.Error(t, err)
	assert.True(t, dlyerr.IsUnauthenticated(err))
}
