// Package auth resolves and manages Datalayer credentials.
//
// Resolution order, first match wins: explicit token, environment
// variables, stored credentials. Interactive commands fall back to the
// browser login flow when the chain comes up empty.
package auth

import (
	"context"
	"errors"
	"os"

	"github.com/datalayer/datalayer-go/pkg/auth/oauth"
	"github.com/datalayer/datalayer-go/pkg/auth/tokenstore"
	"github.com/datalayer/datalayer-go/pkg/client"
	"github.com/datalayer/datalayer-go/pkg/config"
	"github.com/datalayer/datalayer-go/pkg/dlyerr"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

const (
	// TokenEnvVar is the primary environment variable holding an API token.
	TokenEnvVar = "DATALAYER_API_KEY"

	// LegacyTokenEnvVar is the older variable name, still honored.
	LegacyTokenEnvVar = "DATALAYER_TOKEN"
)

// Manager resolves credentials and drives the login/logout flows.
type Manager struct {
	cfg           *config.Config
	explicitToken string
	store         tokenstore.Store
}

// NewManager creates a Manager. explicitToken is the value of a --token
// flag or equivalent; empty means none was given.
func NewManager(cfg *config.Config, explicitToken string) (*Manager, error) {
	store, err := tokenstore.New(cfg.Credentials.StoreType)
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:           cfg,
		explicitToken: explicitToken,
		store:         store,
	}, nil
}

// NewManagerWithStore creates a Manager with an injected credential store.
func NewManagerWithStore(cfg *config.Config, explicitToken string, store tokenstore.Store) *Manager {
	return &Manager{
		cfg:           cfg,
		explicitToken: explicitToken,
		store:         store,
	}
}

// ResolveToken walks the credential chain and returns the first token
// found. Returns an unauthenticated error when the chain is empty.
func (m *Manager) ResolveToken() (string, error) {
	// 1. Explicit token always wins.
	if m.explicitToken != "" {
		return m.explicitToken, nil
	}

	// 2. Environment variables.
	if token := os.Getenv(TokenEnvVar); token != "" {
		return token, nil
	}
	if token := os.Getenv(LegacyTokenEnvVar); token != "" {
		return token, nil
	}

	// 3. Stored credentials.
	cred, err := m.store.Load()
	if err != nil {
		if errors.Is(err, tokenstore.ErrNoCredentials) {
			return "", dlyerr.NewUnauthenticatedError(
				"not logged in. Run 'dla login' to authenticate", nil)
		}
		return "", err
	}

	return cred.Token, nil
}

// tokenFunc is the lenient variant used by the API client: a chain miss
// yields an empty token (the request goes out unauthenticated and the
// service answers 401), while store failures still surface.
func (m *Manager) tokenFunc() (string, error) {
	token, err := m.ResolveToken()
	if err != nil {
		if dlyerr.IsUnauthenticated(err) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// APIClient builds a Datalayer API client wired to this manager's
// credential chain.
func (m *Manager) APIClient() (*client.Client, error) {
	return client.New(
		client.WithRunURL(m.cfg.RunURL),
		client.WithIAMURL(m.cfg.IAMURL),
		client.WithTokenFunc(m.tokenFunc),
	)
}

// Login exchanges a handle/password pair for a token and stores it.
func (m *Manager) Login(ctx context.Context, handle, password string) (*client.LoginResult, error) {
	c, err := m.APIClient()
	if err != nil {
		return nil, err
	}

	result, err := c.IAM.Login(ctx, handle, password)
	if err != nil {
		return nil, err
	}

	if err := m.storeToken(result.Token, handle); err != nil {
		return nil, err
	}
	return result, nil
}

// LoginWithToken validates a token against IAM and stores it.
func (m *Manager) LoginWithToken(ctx context.Context, token string) (*client.User, error) {
	if token == "" {
		return nil, dlyerr.NewInvalidArgumentError("token cannot be empty", nil)
	}

	c, err := client.New(
		client.WithRunURL(m.cfg.RunURL),
		client.WithIAMURL(m.cfg.IAMURL),
		client.WithToken(token),
	)
	if err != nil {
		return nil, err
	}

	user, err := c.IAM.Whoami(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.storeToken(token, user.Handle); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithBrowser runs the OAuth authorization-code flow against the IAM
// issuer and stores the resulting token.
func (m *Manager) LoginWithBrowser(ctx context.Context, skipBrowser bool) (*client.User, error) {
	issuer := m.cfg.OAuth.Issuer
	if issuer == "" {
		issuer = m.cfg.IAMURL
	}

	endpoints, err := oauth.DiscoverEndpoints(ctx, issuer)
	if err != nil {
		return nil, dlyerr.NewUnauthenticatedError("failed to discover IAM endpoints", err)
	}

	clientID := m.cfg.OAuth.ClientID
	if clientID == "" {
		clientID = "datalayer-cli"
	}

	flow, err := oauth.NewFlow(&oauth.Config{
		ClientID:     clientID,
		AuthURL:      endpoints.AuthURL,
		TokenURL:     endpoints.TokenURL,
		Scopes:       []string{"openid", "profile", "email"},
		UsePKCE:      true,
		CallbackPort: m.cfg.OAuth.CallbackPort,
	})
	if err != nil {
		return nil, err
	}

	result, err := flow.Start(ctx, skipBrowser)
	if err != nil {
		return nil, err
	}

	// Validate and resolve the identity with the fresh token.
	return m.LoginWithToken(ctx, result.AccessToken)
}

// Logout invalidates the token server-side (best effort) and deletes the
// stored credential.
func (m *Manager) Logout(ctx context.Context) error {
	token, err := m.ResolveToken()
	if err == nil && token != "" {
		c, err := m.APIClient()
		if err == nil {
			if err := c.IAM.Logout(ctx); err != nil {
				logger.Debugf("server-side logout failed: %v", err)
			}
		}
	}

	return m.store.Delete()
}

// Whoami returns the identity behind the resolved credential.
func (m *Manager) Whoami(ctx context.Context) (*client.User, error) {
	if _, err := m.ResolveToken(); err != nil {
		return nil, err
	}

	c, err := m.APIClient()
	if err != nil {
		return nil, err
	}
	return c.IAM.Whoami(ctx)
}

// OfflineIdentity decodes the resolved token's JWT claims without
// verification. Display-only fallback for when IAM is unreachable.
func (m *Manager) OfflineIdentity() (map[string]any, error) {
	token, err := m.ResolveToken()
	if err != nil {
		return nil, err
	}

	claims, err := oauth.ExtractJWTClaims(token)
	if err != nil {
		return nil, dlyerr.NewInvalidArgumentError("token is not a JWT", err)
	}
	return claims, nil
}

func (m *Manager) storeToken(token, handle string) error {
	return m.store.Save(tokenstore.Credential{
		Token:  token,
		Handle: handle,
		IAMURL: m.cfg.IAMURL,
	})
}
