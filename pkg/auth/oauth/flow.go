// Package oauth implements the browser login for the Datalayer CLI: a
// short-lived localhost callback server, an authorization-code exchange
// against the IdP, and PKCE when the client has no secret.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/datalayer/datalayer-go/pkg/logger"
	"github.com/datalayer/datalayer-go/pkg/networking"
)

// Config describes the IdP endpoints and client settings for a login.
type Config struct {
	ClientID     string
	ClientSecret string // empty for public PKCE clients

	AuthURL  string
	TokenURL string

	// RedirectURL overrides the default http://localhost:<port>/callback.
	RedirectURL string

	Scopes []string

	// UsePKCE sends an S256 code challenge with the authorization request.
	UsePKCE bool

	// CallbackPort pins the local callback server port; 0 picks a free one.
	CallbackPort int
}

// Flow runs one interactive login: it serves the local callback endpoint,
// sends the user to the IdP, and trades the returned code for tokens.
type Flow struct {
	cfg       *Config
	oauth2Cfg *oauth2.Config
	port      int

	state         string
	codeVerifier  string
	codeChallenge string
}

// TokenResult is what a completed login yields.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	Claims       jwt.MapClaims
	IDToken      string // OIDC ID token, when the provider returned one
}

// NewFlow validates the config and reserves a callback port.
func NewFlow(cfg *Config) (*Flow, error) {
	if cfg == nil {
		return nil, errors.New("OAuth config cannot be nil")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.AuthURL == "" {
		return nil, errors.New("authorization URL is required")
	}
	if cfg.TokenURL == "" {
		return nil, errors.New("token URL is required")
	}

	port, err := networking.FindOrUsePort(cfg.CallbackPort)
	if err != nil {
		return nil, fmt.Errorf("no port for the callback server: %w", err)
	}

	redirectURL := cfg.RedirectURL
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("http://localhost:%d/callback", port)
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	f := &Flow{
		cfg:   cfg,
		port:  port,
		state: state,
		oauth2Cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
	}

	if cfg.UsePKCE {
		f.codeVerifier = oauth2.GenerateVerifier()
		f.codeChallenge = oauth2.S256ChallengeFromVerifier(f.codeVerifier)
	}
	return f, nil
}

func randomState() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// CallbackPort returns the port the callback server listens on.
func (f *Flow) CallbackPort() int {
	return f.port
}

// Start serves the callback endpoint, points the user's browser at the IdP
// and blocks until the login completes, fails, or ctx is done. SIGINT and
// SIGTERM abort the wait.
func (f *Flow) Start(ctx context.Context, skipBrowser bool) (*TokenResult, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := &callbackHandler{flow: f, done: make(chan callbackResult, 1)}

	mux := http.NewServeMux()
	mux.Handle("/callback", handler)
	mux.HandleFunc("/", serveWaitingPage)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", f.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Debugf("login callback server listening on port %d", f.port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("callback server shutdown: %v", err)
		}
	}()

	authURL := f.buildAuthURL()
	if skipBrowser {
		logger.Infof("Open this URL in your browser to log in: %s", authURL)
	} else if err := browser.OpenURL(authURL); err != nil {
		logger.Warnf("Could not open a browser: %v", err)
		logger.Infof("Open this URL in your browser to log in: %s", authURL)
	}
	logger.Info("Waiting for the login to complete in the browser...")

	select {
	case res := <-handler.done:
		if res.err != nil {
			return nil, fmt.Errorf("login failed: %w", res.err)
		}
		return newTokenResult(res.token), nil
	case err := <-serveErr:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("login cancelled: %w", ctx.Err())
	}
}

func (f *Flow) buildAuthURL() string {
	var opts []oauth2.AuthCodeOption
	if f.cfg.UsePKCE {
		opts = append(opts, oauth2.S256ChallengeOption(f.codeVerifier))
	}
	return f.oauth2Cfg.AuthCodeURL(f.state, opts...)
}

func newTokenResult(token *oauth2.Token) *TokenResult {
	result := &TokenResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}

	// Claims are display-only. Prefer the OIDC ID token; the access token
	// may be opaque.
	source := token.AccessToken
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		result.IDToken = idToken
		source = idToken
	}
	if claims, err := ExtractJWTClaims(source); err == nil {
		result.Claims = claims
	} else {
		logger.Debugf("token carries no readable JWT claims: %v", err)
	}
	return result
}

// callbackHandler receives the IdP redirect on the local server, checks
// state, and performs the code exchange. The first outcome wins; anything
// after that only gets a page rendered.
type callbackHandler struct {
	flow *Flow
	done chan callbackResult
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if name := query.Get("error"); name != "" {
		h.fail(w, fmt.Errorf("provider rejected the login: %s (%s)",
			name, query.Get("error_description")))
		return
	}
	if query.Get("state") != h.flow.state {
		h.fail(w, errors.New("invalid state parameter"))
		return
	}
	code := query.Get("code")
	if code == "" {
		h.fail(w, errors.New("missing authorization code"))
		return
	}

	var opts []oauth2.AuthCodeOption
	if h.flow.cfg.UsePKCE {
		opts = append(opts, oauth2.VerifierOption(h.flow.codeVerifier))
	}
	token, err := h.flow.oauth2Cfg.Exchange(r.Context(), code, opts...)
	if err != nil {
		h.fail(w, fmt.Errorf("code exchange failed: %w", err))
		return
	}

	renderPage(w, http.StatusOK, pageData{
		Title:   "Login successful",
		Status:  "ok",
		Message: "You are now logged in to Datalayer. You can close this window and return to the terminal.",
	})
	h.report(callbackResult{token: token})
}

func (h *callbackHandler) fail(w http.ResponseWriter, err error) {
	renderPage(w, http.StatusBadRequest, pageData{
		Title:   "Login failed",
		Status:  "failed",
		Message: err.Error() + ". Close this window and retry from the terminal.",
	})
	h.report(callbackResult{err: err})
}

func (h *callbackHandler) report(res callbackResult) {
	select {
	case h.done <- res:
	default: // an earlier redirect already settled the flow
	}
}

func serveWaitingPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	renderPage(w, http.StatusOK, pageData{
		Title:   "Datalayer login",
		Status:  "info",
		Message: "The callback server is running. Finish logging in from your browser.",
	})
}

// loginPage is the one page the callback server knows how to serve; the
// status slot switches it between waiting, success and failure.
var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 3rem; text-align: center; }
    main { max-width: 38rem; margin: 0 auto; }
    .status { padding: 1.25rem; border-radius: 4px; border: 1px solid; }
    .info { background: #eef5ff; border-color: #9cc3f5; color: #1a5fb4; }
    .ok { background: #ebf7eb; border-color: #9bd49b; color: #1b6e1b; }
    .failed { background: #fdeeee; border-color: #eda2a2; color: #a51d2d; }
  </style>
</head>
<body>
  <main>
    <h1>{{.Title}}</h1>
    <div class="status {{.Status}}">{{.Message}}</div>
  </main>
</body>
</html>
`))

type pageData struct {
	Title   string
	Status  string // css class: info, ok or failed
	Message string
}

func renderPage(w http.ResponseWriter, statusCode int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.WriteHeader(statusCode)
	if err := loginPage.Execute(w, data); err != nil {
		logger.Warnf("failed to render login page: %v", err)
	}
}

// ExtractJWTClaims decodes the claims of a JWT without verifying its
// signature. Display-only: authoritative identity always comes from IAM.
func ExtractJWTClaims(tokenString string) (jwt.MapClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return claims, nil
}
