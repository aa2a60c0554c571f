// Package auth owns the bearer token lifecycle: lookup across sources,
// persistence to the token file and invalidation on logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EnvToken overrides every other credential source when set.
const EnvToken = "PETHUB_TOKEN"

const tokenFileName = ".pethub_token"

type Source string

const (
	SourceEnvironment Source = "environment"
	SourceFile        Source = "file"
	SourceLogin       Source = "login"
)

// Credential is a bearer token plus where it came from. It stays valid for
// the rest of the run until an API call is rejected.
type Credential struct {
	Token  string
	Source Source
}

type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Authenticator exchanges account credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Prompter collects account credentials from the user.
type Prompter interface {
	Credentials(ctx context.Context) (email, password string, err error)
}

type Store struct {
	path   string
	api    Authenticator
	prompt Prompter
	logger *slog.Logger
}

func NewStore(path string, api Authenticator, prompt Prompter, logger *slog.Logger) *Store {
	return &Store{path: path, api: api, prompt: prompt, logger: logger}
}

// DefaultTokenPath is the fixed per-user token file location.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, tokenFileName), nil
}

// Acquire walks the sources in order and stops at the first that yields a
// token: environment variable, token file, interactive login. Only the
// login step touches the network, and only it writes the token file.
func (s *Store) Acquire(ctx context.Context) (Credential, error) {
	if token := strings.TrimSpace(os.Getenv(EnvToken)); token != "" {
		s.logger.Debug("using token from environment", "var", EnvToken)
		return Credential{Token: token, Source: SourceEnvironment}, nil
	}

	if token, err := s.readTokenFile(); err == nil {
		s.logger.Debug("using token from file", "path", s.path)
		return Credential{Token: token, Source: SourceFile}, nil
	}

	return s.login(ctx)
}

// Reauthenticate skips straight to interactive login, replacing whatever
// the token file held.
func (s *Store) Reauthenticate(ctx context.Context) (Credential, error) {
	s.logger.Debug("forcing re-authentication")
	return s.login(ctx)
}

// Logout removes the token file. A missing file is not an error.
func (s *Store) Logout() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

func (s *Store) readTokenFile() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", s.path)
	}
	return token, nil
}

func (s *Store) login(ctx context.Context) (Credential, error) {
	email, password, err := s.prompt.Credentials(ctx)
	if err != nil {
		return Credential{}, &AuthError{Reason: "reading credentials", Err: err}
	}

	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return Credential{}, &AuthError{Reason: "login rejected", Err: err}
	}

	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		// The session still works with the in-memory token; the user just
		// has to log in again next run.
		s.logger.Warn("could not save token file", "path", s.path, "error", err)
	}

	return Credential{Token: token, Source: SourceLogin}, nil
}
