package oauth

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Endpoints are the OAuth endpoints resolved from an OIDC issuer.
type Endpoints struct {
	AuthURL  string
	TokenURL string
}

// DiscoverEndpoints resolves the authorization and token endpoints from an
// OIDC issuer's well-known configuration.
func DiscoverEndpoints(ctx context.Context, issuer string) (*Endpoints, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer URL: %w", err)
	}

	// Require HTTPS except for local development issuers.
	if issuerURL.Scheme != "https" && !isLocalhost(issuerURL.Host) {
		return nil, fmt.Errorf("issuer must use HTTPS: %s", issuer)
	}

	provider, err := oidc.NewProvider(ctx, strings.TrimSuffix(issuer, "/"))
	if err != nil {
		return nil, fmt.Errorf("OIDC discovery failed for %s: %w", issuer, err)
	}

	endpoint := provider.Endpoint()
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		return nil, fmt.Errorf("issuer %s does not advertise authorization and token endpoints", issuer)
	}

	return &Endpoints{
		AuthURL:  endpoint.AuthURL,
		TokenURL: endpoint.TokenURL,
	}, nil
}

func isLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	// A bracketed IPv6 host without a port is not split above.
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
