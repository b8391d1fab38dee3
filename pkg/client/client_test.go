package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(
		WithRunURL(server.URL),
		WithIAMURL(server.URL),
		WithToken("test-token"),
	)
	require.NoError(t, err)
	return c, server
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing run URL", func(t *testing.T) {
		t.Parallel()
		_, err := New()
		require.Error(t, err)
		assert.True(t, dlyerr.IsInvalidArgument(err))
	})

	t.Run("IAM URL defaults to run URL", func(t *testing.T) {
		t.Parallel()
		c, err := New(WithRunURL("https://example.datalayer.run/"))
		require.NoError(t, err)
		assert.Equal(t, "https://example.datalayer.run", c.iamURL)
	})
}

func TestDoSendsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success": true, "environments": []}`))
	}))

	_, err := c.Environments.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestDoErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		predicate func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"success": false, "message": "token expired"}`, dlyerr.IsUnauthenticated},
		{"forbidden", http.StatusForbidden, `{"success": false, "message": "not allowed"}`, dlyerr.IsForbidden},
		{"not found", http.StatusNotFound, `{"success": false, "message": "no such runtime"}`, dlyerr.IsNotFound},
		{"bad request", http.StatusBadRequest, `{"success": false, "message": "bad spec"}`, dlyerr.IsInvalidArgument},
		{"teapot", http.StatusTeapot, `short and stout`, dlyerr.IsAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := c.Runtimes.List(context.Background())
			require.Error(t, err)
			assert.True(t, tt.predicate(err), "unexpected error type: %v", err)
			// 4xx responses must not be retried.
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	t.Parallel()

	t.Run("recovers after transient 500", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"success": true, "runtimes": [{"uid": "u1", "pod_name": "p1", "environment_name": "ai-env"}]}`))
		}))

		runtimes, err := c.Runtimes.List(context.Background())
		require.NoError(t, err)
		require.Len(t, runtimes, 1)
		assert.Equal(t, "p1", runtimes[0].PodName)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"success": false, "message": "upstream down"}`))
		}))

		_, err := c.Runtimes.List(context.Background())
		require.Error(t, err)
		assert.True(t, dlyerr.IsAPI(err))
		assert.Equal(t, int32(maxTries), calls.Load())
	})
}

func TestAPIMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"envelope", `{"success": false, "message": "credits exhausted"}`, "credits exhausted"},
		{"raw body", `plain text error`, "plain text error"},
		{"empty body", ``, "no error details provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, apiMessage([]byte(tt.body)))
		})
	}
}
