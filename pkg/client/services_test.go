package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
)

func TestIAMLogin(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/iam/v1/login", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "eric", body["handle"])

			w.Write([]byte(`{"success": true, "token": "jwt-value", "user": {"uid": "u1", "handle_s": "eric"}}`))
		}))

		result, err := c.IAM.Login(context.Background(), "eric", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "jwt-value", result.Token)
		assert.Equal(t, "eric", result.User.Handle)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("request should not be sent")
		}))

		_, err := c.IAM.Login(context.Background(), "", "")
		assert.True(t, dlyerr.IsInvalidArgument(err))
	})

	t.Run("success=false envelope", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"success": false, "message": "bad credentials"}`))
		}))

		_, err := c.IAM.Login(context.Background(), "eric", "wrong")
		require.Error(t, err)
		assert.True(t, dlyerr.IsUnauthenticated(err))
		assert.Contains(t, err.Error(), "bad credentials")
	})
}

func TestIAMWhoami(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/iam/v1/whoami", r.URL.Path)
		w.Write([]byte(`{"success": true, "profile": {"uid": "u1", "handle_s": "eric", "email_s": "eric@example.com", "credits": 42.5}}`))
	}))

	user, err := c.IAM.Whoami(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eric", user.Handle)
	assert.InDelta(t, 42.5, user.Credits, 0.001)
}

func TestEnvironmentsGet(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/runtimes/v1/environments", r.URL.Path)
		w.Write([]byte(`{"success": true, "environments": [
			{"name": "python-cpu-env", "title": "Python CPU", "language": "python", "burning_rate": 1},
			{"name": "ai-env", "title": "AI env", "language": "python", "burning_rate": 12}
		]}`))
	})

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, handler)
		env, err := c.Environments.Get(context.Background(), "ai-env")
		require.NoError(t, err)
		assert.Equal(t, "AI env", env.Title)
		assert.InDelta(t, 12.0, env.BurnRate, 0.001)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, handler)
		_, err := c.Environments.Get(context.Background(), "rust-env")
		assert.True(t, dlyerr.IsNotFound(err))
	})
}

func TestRuntimesCreate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are filled in", func(t *testing.T) {
		t.Parallel()
		var gotSpec RuntimeSpec
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSpec))
			w.Write([]byte(`{"success": true, "runtime": {"uid": "r1", "pod_name": "pod-1", "environment_name": "ai-env"}}`))
		}))

		runtime, err := c.Runtimes.Create(context.Background(), RuntimeSpec{EnvironmentName: "ai-env"})
		require.NoError(t, err)
		assert.Equal(t, "pod-1", runtime.PodName)
		assert.Equal(t, "notebook", gotSpec.Type)
		assert.Regexp(t, `^runtime-[0-9a-f]{8}$`, gotSpec.GivenName)
	})

	t.Run("requires environment or snapshot", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("request should not be sent")
		}))

		_, err := c.Runtimes.Create(context.Background(), RuntimeSpec{})
		assert.True(t, dlyerr.IsInvalidArgument(err))
	})
}

func TestRuntimesTerminate(t *testing.T) {
	t.Parallel()

	var gotPath, gotMethod string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{"success": true}`))
	}))

	require.NoError(t, c.Runtimes.Terminate(context.Background(), "pod-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/runtimes/v1/runtimes/pod-1", gotPath)
}

func TestSnapshotsRestore(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/runtimes/v1/runtime-snapshots/snap-1":
			w.Write([]byte(`{"success": true, "snapshot": {"uid": "snap-1", "name": "checkpoint", "environment": "ai-env"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/runtimes/v1/runtimes":
			var spec RuntimeSpec
			require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
			require.Equal(t, "ai-env", spec.EnvironmentName)
			require.Equal(t, "snapshot:snap-1", spec.FromSnapshot)
			w.Write([]byte(`{"success": true, "runtime": {"uid": "r2", "pod_name": "pod-2", "environment_name": "ai-env"}}`))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	runtime, err := c.Snapshots.Restore(context.Background(), "snap-1", RuntimeSpec{})
	require.NoError(t, err)
	assert.Equal(t, "pod-2", runtime.PodName)
}

func TestSecretsCreate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		var gotSpec SecretSpec
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/iam/v1/secrets", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSpec))
			w.Write([]byte(`{"success": true, "secret": {"uid": "s1", "name_s": "OPENAI_API_KEY"}}`))
		}))

		secret, err := c.Secrets.Create(context.Background(), SecretSpec{Name: "OPENAI_API_KEY", Value: "sk-123"})
		require.NoError(t, err)
		assert.Equal(t, "s1", secret.UID)
		assert.Equal(t, "generic", gotSpec.Variant)
	})

	t.Run("requires value", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("request should not be sent")
		}))

		_, err := c.Secrets.Create(context.Background(), SecretSpec{Name: "KEY"})
		assert.True(t, dlyerr.IsInvalidArgument(err))
	})
}

func TestTokensCreate(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/iam/v1/tokens", r.URL.Path)
		w.Write([]byte(`{"success": true, "token": {"uid": "t1", "name_s": "ci-token"}, "access_token": "raw-value"}`))
	}))

	created, err := c.Tokens.Create(context.Background(), TokenSpec{Name: "ci-token"})
	require.NoError(t, err)
	assert.Equal(t, "t1", created.Token.UID)
	assert.Equal(t, "raw-value", created.Value)
}
