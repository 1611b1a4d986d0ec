// Package auth manages the Google OAuth capability: a token persisted on
// disk, loaded once per process, and invalidated on explicit logout. The rest
// of the system consumes it as an injected capability object rather than
// reading token files ad hoc.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested during the OAuth flow: send mail, manage calendar, read
// Drive metadata.
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/drive.readonly",
}

// Config holds the OAuth client settings and the token file location.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
}

// Store is the process-wide Google credential holder. The token is read from
// disk exactly once, at construction; Exchange and Logout keep the in-memory
// copy and the file in sync.
type Store struct {
	config *oauth2.Config
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	token *oauth2.Token
}

// NewStore builds the store and loads any previously persisted token. A
// missing or unreadable token file is not an error; it just means
// unauthenticated.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		path:   cfg.TokenPath,
		logger: logger.With("component", "auth"),
	}
	s.token = s.loadToken()
	return s
}

func (s *Store) loadToken() *oauth2.Token {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		s.logger.Warn("ignoring unreadable token file", "path", s.path, "error", err)
		return nil
	}
	return &token
}

// Authenticated reports whether a Google credential is present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil
}

// HasRefreshToken reports whether the stored credential can be refreshed.
func (s *Store) HasRefreshToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil && s.token.RefreshToken != ""
}

// AuthURL returns the consent-screen URL for the OAuth flow.
func (s *Store) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and persists it.
func (s *Store) Exchange(ctx context.Context, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Logout removes the persisted token and invalidates the in-memory copy.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// TokenSource returns a refreshing token source for Google API clients.
func (s *Store) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == nil {
		return nil, errors.New("not authenticated with Google")
	}
	return s.config.TokenSource(ctx, token), nil
}
