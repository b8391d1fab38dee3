package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("well-known document", func(t *testing.T) {
		t.Parallel()
		var issuer string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/.well-known/openid-configuration", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{
				"issuer": %q,
				"authorization_endpoint": %q,
				"token_endpoint": %q,
				"jwks_uri": %q
			}`, issuer, issuer+"/authorize", issuer+"/token", issuer+"/jwks")
		}))
		defer server.Close()
		issuer = server.URL

		endpoints, err := DiscoverEndpoints(context.Background(), issuer)
		require.NoError(t, err)
		assert.Equal(t, issuer+"/authorize", endpoints.AuthURL)
		assert.Equal(t, issuer+"/token", endpoints.TokenURL)
	})

	t.Run("rejects plain HTTP for non-local issuers", func(t *testing.T) {
		t.Parallel()
		_, err := DiscoverEndpoints(context.Background(), "http://iam.example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTPS")
	})

	t.Run("unreachable issuer", func(t *testing.T) {
		t.Parallel()
		_, err := DiscoverEndpoints(context.Background(), "http://127.0.0.1:1")
		assert.Error(t, err)
	})
}

func TestIsLocalhost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"localhost:8080", true},
		{"127.0.0.1:35763", true},
		{"[::1]:443", true},
		{"[::1]", true},
		{"iam.example.com", false},
		{"iam.example.com:443", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isLocalhost(tt.host))
		})
	}
}
