// Package client provides a typed REST client for the Datalayer platform
// services (IAM, runtimes, environments, snapshots, secrets, tokens).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
	"github.com/datalayer/datalayer-go/pkg/logger"
	"github.com/datalayer/datalayer-go/pkg/networking"
)

const (
	iamAPIPath      = "/api/iam/v1"
	runtimesAPIPath = "/api/runtimes/v1"

	// maxTries is the total number of attempts for a single API call,
	// including the initial one. Only transport errors and 5xx responses
	// are retried.
	maxTries = 3
)

// Client is the entry point to the Datalayer REST API. Service wrappers are
// exposed as fields; all of them share the same HTTP client and credential
// resolver.
type Client struct {
	runURL string
	iamURL string
	http   *http.Client

	// Service wrappers.
	IAM          *IAMService
	Environments *EnvironmentsService
	Runtimes     *RuntimesService
	Snapshots    *SnapshotsService
	Secrets      *SecretsService
	Tokens       *TokensService
}

// Option configures a Client.
type Option func(*options)

type options struct {
	runURL     string
	iamURL     string
	tokenFunc  func() (string, error)
	httpClient *http.Client
	caCertPath string
	timeout    time.Duration
}

// WithRunURL sets the base URL of the runtimes service.
func WithRunURL(url string) Option {
	return func(o *options) { o.runURL = url }
}

// WithIAMURL sets the base URL of the IAM service.
func WithIAMURL(url string) Option {
	return func(o *options) { o.iamURL = url }
}

// WithTokenFunc sets the resolver used to obtain the bearer token for each
// request. An empty token means the request goes out unauthenticated.
func WithTokenFunc(tokenFunc func() (string, error)) Option {
	return func(o *options) { o.tokenFunc = tokenFunc }
}

// WithToken sets a static bearer token.
func WithToken(token string) Option {
	return func(o *options) {
		o.tokenFunc = func() (string, error) { return token, nil }
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.httpClient = httpClient }
}

// WithCABundle sets a CA certificate bundle for the HTTP client.
func WithCABundle(path string) Option {
	return func(o *options) { o.caCertPath = path }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// New creates a Datalayer API client.
func New(opts ...Option) (*Client, error) {
	o := &options{
		timeout: networking.HTTPTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.runURL == "" {
		return nil, dlyerr.NewInvalidArgumentError("run URL is required", nil)
	}
	if o.iamURL == "" {
		o.iamURL = o.runURL
	}

	httpClient := o.httpClient
	if httpClient == nil {
		builder := networking.NewHTTPClientBuilder().WithTimeout(o.timeout)
		if o.caCertPath != "" {
			builder = builder.WithCABundle(o.caCertPath)
		}
		if o.tokenFunc != nil {
			builder = builder.WithBearerToken(o.tokenFunc)
		}
		var err error
		httpClient, err = builder.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP client: %w", err)
		}
	}

	c := &Client{
		runURL: strings.TrimSuffix(o.runURL, "/"),
		iamURL: strings.TrimSuffix(o.iamURL, "/"),
		http:   httpClient,
	}
	c.IAM = &IAMService{client: c}
	c.Environments = &EnvironmentsService{client: c}
	c.Runtimes = &RuntimesService{client: c}
	c.Snapshots = &SnapshotsService{client: c}
	c.Secrets = &SecretsService{client: c}
	c.Tokens = &TokensService{client: c}

	return c, nil
}

// iamPath builds an IAM service URL.
func (c *Client) iamPath(segments ...string) string {
	return c.iamURL + iamAPIPath + "/" + strings.Join(segments, "/")
}

// runtimesPath builds a runtimes service URL.
func (c *Client) runtimesPath(segments ...string) string {
	return c.runURL + runtimesAPIPath + "/" + strings.Join(segments, "/")
}

// do performs one API call and decodes the JSON response into out (when out
// is non-nil). Transport errors and 5xx responses are retried with
// exponential backoff; 4xx responses are permanent.
func (c *Client) do(ctx context.Context, method, url string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return dlyerr.NewInternalError("failed to encode request body", err)
		}
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond

	operation := func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, backoff.Permanent(dlyerr.NewInternalError("failed to create request", err))
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Transport failure, worth retrying.
			return nil, dlyerr.NewTransportError(fmt.Sprintf("%s %s failed", method, url), err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, dlyerr.NewTransportError("failed to read response body", err)
		}

		if resp.StatusCode >= 500 {
			return nil, dlyerr.NewAPIError(
				fmt.Sprintf("service error (%d): %s", resp.StatusCode, apiMessage(respBody)), nil)
		}
		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(statusError(resp.StatusCode, respBody))
		}

		return respBody, nil
	}

	respBody, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, duration time.Duration) {
			logger.Debugf("retrying %s %s after %v: %v", method, url, duration, err)
		}),
	)
	if err != nil {
		return err
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return dlyerr.NewAPIError("failed to decode response", err)
		}
	}

	return nil
}

// statusError maps a non-retryable HTTP status to a typed error.
func statusError(status int, body []byte) error {
	message := apiMessage(body)

	switch status {
	case http.StatusUnauthorized:
		return dlyerr.NewUnauthenticatedError(message, nil)
	case http.StatusForbidden:
		return dlyerr.NewForbiddenError(message, nil)
	case http.StatusNotFound:
		return dlyerr.NewNotFoundError(message, nil)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return dlyerr.NewInvalidArgumentError(message, nil)
	default:
		return dlyerr.NewAPIError(fmt.Sprintf("unexpected status %d: %s", status, message), nil)
	}
}

// apiMessage extracts the service's error message from a response body,
// falling back to the raw body when it is not the usual envelope.
func apiMessage(body []byte) string {
	var envelope APIResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "no error details provided"
	}
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
