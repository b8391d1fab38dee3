package networking

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"
)

// HTTPTimeout is the timeout for outgoing HTTP requests
const HTTPTimeout = 30 * time.Second

// BearerTransport adds Bearer token authentication to HTTP requests.
// The token is resolved per request so that refreshed credentials are
// picked up without rebuilding the client.
type BearerTransport struct {
	Transport http.RoundTripper
	TokenFunc func() (string, error)
}

// RoundTrip adds the Authorization header and forwards the request
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.TokenFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bearer token: %w", err)
	}

	// Clone the request to avoid modifying the original
	newReq := req.Clone(req.Context())
	if token != "" {
		newReq.Header.Set("Authorization", "Bearer "+token)
	}

	return t.Transport.RoundTrip(newReq)
}

// HTTPClientBuilder provides a fluent interface for building HTTP clients
type HTTPClientBuilder struct {
	clientTimeout         time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	caCertPath            string
	tokenFunc             func() (string, error)
}

// NewHTTPClientBuilder returns a new HTTPClientBuilder
func NewHTTPClientBuilder() *HTTPClientBuilder {
	return &HTTPClientBuilder{
		clientTimeout:         HTTPTimeout,
		tlsHandshakeTimeout:   10 * time.Second,
		responseHeaderTimeout: 10 * time.Second,
	}
}

// WithCABundle sets the CA certificate bundle path
func (b *HTTPClientBuilder) WithCABundle(path string) *HTTPClientBuilder {
	b.caCertPath = path
	return b
}

// WithTimeout overrides the overall client timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.clientTimeout = timeout
	return b
}

// WithBearerToken sets a token resolver used to authenticate every request
func (b *HTTPClientBuilder) WithBearerToken(tokenFunc func() (string, error)) *HTTPClientBuilder {
	b.tokenFunc = tokenFunc
	return b
}

// Build creates the configured HTTP client
func (b *HTTPClientBuilder) Build() (*http.Client, error) {
	transport := &http.Transport{
		TLSHandshakeTimeout:   b.tlsHandshakeTimeout,
		ResponseHeaderTimeout: b.responseHeaderTimeout,
	}

	if b.caCertPath != "" {
		caCert, err := os.ReadFile(b.caCertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate bundle: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate bundle")
		}

		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    caCertPool,
		}
	}

	var clientTransport http.RoundTripper = transport

	if b.tokenFunc != nil {
		clientTransport = &BearerTransport{
			Transport: clientTransport,
			TokenFunc: b.tokenFunc,
		}
	}

	client := &http.Client{
		Transport: clientTransport,
		Timeout:   b.clientTimeout,
	}

	return client, nil
}
