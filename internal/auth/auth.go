// Package auth implements the PKCE authorization-code flow against the
// streaming service's account endpoints and owns the token lifecycle.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lmercier/blindtest/internal/config"
	"github.com/lmercier/blindtest/internal/store"
)

// Scopes requested on login: remote playback control and private
// playlist metadata.
const scopes = "app-remote-control playlist-read-private"

var (
	// ErrLoginRequired is returned when no usable token exists and no
	// refresh is possible; the host must log in again.
	ErrLoginRequired = errors.New("login required")
	// ErrNoRefreshToken is returned by Refresh when the provider never
	// issued a refresh token.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrExchangeFailed is returned when the authorization-code exchange
	// fails or returns a malformed body.
	ErrExchangeFailed = errors.New("code exchange failed")
	// ErrRefreshFailed is returned when a token refresh fails; the prior
	// token state is left untouched.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// TokenStore persists the token triple across runs.
type TokenStore interface {
	GetSession() (*store.Session, error)
	SaveSession(sess store.Session) error
}

// Session owns the access/refresh token pair and the in-flight PKCE
// verifier. All mutations go through its methods.
type Session struct {
	mu sync.Mutex

	cfg        config.SpotifyConfig
	tokens     TokenStore
	httpClient *http.Client

	accessToken  string
	refreshToken string
	expiresAt    time.Time
	codeVerifier string

	now func() time.Time
}

// New creates a session backed by the given token store. Previously
// persisted tokens are loaded so a restart does not force a new login.
func New(cfg config.SpotifyConfig, tokens TokenStore) (*Session, error) {
	s := &Session{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		now:        time.Now,
	}

	persisted, err := tokens.GetSession()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if persisted != nil {
		s.accessToken = persisted.AccessToken
		s.refreshToken = persisted.RefreshToken
		s.expiresAt = persisted.ExpiresAt
	}

	return s, nil
}

// RedirectURI returns the redirect URI registered for this client.
func (s *Session) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d/callback", s.cfg.RedirectPort)
}

// AuthorizationURL generates a fresh PKCE verifier and returns the
// provider's authorize URL. Any previous verifier is overwritten, which
// invalidates an authorization attempt still in flight.
func (s *Session) AuthorizationURL() (string, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}

	s.mu.Lock()
	s.codeVerifier = verifier
	s.mu.Unlock()

	params := url.Values{}
	params.Set("client_id", s.cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", s.RedirectURI())
	params.Set("code_challenge_method", "S256")
	params.Set("code_challenge", codeChallenge(verifier))
	params.Set("scope", scopes)

	return s.cfg.AuthorizeURL + "?" + params.Encode(), nil
}

// ExchangeCode posts the authorization code with the stored verifier and
// stores the resulting tokens. The verifier is consumed whether or not
// the exchange succeeds.
func (s *Session) ExchangeCode(ctx context.Context, code string) error {
	s.mu.Lock()
	verifier := s.codeVerifier
	s.codeVerifier = ""
	s.mu.Unlock()

	if verifier == "" {
		return fmt.Errorf("%w: no authorization in flight", ErrExchangeFailed)
	}

	form := url.Values{}
	form.Set("client_id", s.cfg.ClientID)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.RedirectURI())
	form.Set("code_verifier", verifier)

	tok, err := s.postTokenRequest(ctx, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	s.mu.Lock()
	s.accessToken = tok.AccessToken
	s.refreshToken = tok.RefreshToken
	s.expiresAt = s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	s.mu.Unlock()

	return s.persist()
}

// Refresh exchanges the refresh token for a new access token. The prior
// refresh token is kept when the provider does not rotate it. On any
// failure the existing token state is left untouched.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()

	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", s.cfg.ClientID)

	tok, err := s.postTokenRequest(ctx, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	s.mu.Lock()
	s.accessToken = tok.AccessToken
	s.expiresAt = s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if tok.RefreshToken != "" {
		s.refreshToken = tok.RefreshToken
	}
	s.mu.Unlock()

	return s.persist()
}

// Valid reports whether a non-expired access token is present. A refresh
// token on its own never makes the session valid.
func (s *Session) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != "" && s.now().Before(s.expiresAt)
}

// EnsureValid refreshes an expired session when possible and fails with
// ErrLoginRequired when it is not. No network call is made when the
// session is already valid or no refresh token exists.
func (s *Session) EnsureValid(ctx context.Context) error {
	if s.Valid() {
		return nil
	}

	s.mu.Lock()
	hasRefresh := s.refreshToken != ""
	s.mu.Unlock()

	if !hasRefresh {
		return ErrLoginRequired
	}
	return s.Refresh(ctx)
}

// AccessToken returns the current access token, which may be expired;
// callers should EnsureValid first.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *Session) persist() error {
	s.mu.Lock()
	sess := store.Session{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		ExpiresAt:    s.expiresAt,
	}
	s.mu.Unlock()

	if err := s.tokens.SaveSession(sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Session) postTokenRequest(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if tok.AccessToken == "" || tok.ExpiresIn <= 0 {
		return nil, errors.New("malformed token response")
	}

	return &tok, nil
}

// generateCodeVerifier returns 32 cryptographically random bytes encoded
// as unpadded base64url, per RFC 7636.
func generateCodeVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func codeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
