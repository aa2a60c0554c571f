package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"pethub/internal/auth"
)

type fakeAuthenticator struct {
	token  string
	err    error
	logins int
}

func (f *fakeAuthenticator) Login(_ context.Context, _, _ string) (string, error) {
	f.logins++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakePrompter struct {
	email    string
	password string
	err      error
	prompts  int
}

func (f *fakePrompter) Credentials(_ context.Context) (string, string, error) {
	f.prompts++
	return f.email, f.password, f.err
}

func newTestStore(t *testing.T, api *fakeAuthenticator, prompt *fakePrompter) (*auth.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pethub_token")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewStore(path, api, prompt, logger), path
}

func TestAcquire_PrefersEnvironment(t *testing.T) {
	t.Setenv(auth.EnvToken, "env-token")

	api := &fakeAuthenticator{token: "login-token"}
	prompt := &fakePrompter{}
	store, path := newTestStore(t, api, prompt)
	os.WriteFile(path, []byte("file-token"), 0o600)

	cred, err := store.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if cred.Token != "env-token" || cred.Source != auth.SourceEnvironment {
		t.Errorf("got %+v, want env-token from environment", cred)
	}
	if prompt.prompts != 0 || api.logins != 0 {
		t.Error("environment token should not trigger prompt or login")
	}
}

func TestAcquire_PrefersFileOverLogin(t *testing.T) {
	t.Setenv(auth.EnvToken, "")

	api := &fakeAuthenticator{token: "login-token"}
	prompt := &fakePrompter{}
	store, path := newTestStore(t, api, prompt)
	os.WriteFile(path, []byte("file-token\n"), 0o600)

	cred, err := store.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if cred.Token != "file-token" || cred.Source != auth.SourceFile {
		t.Errorf("got %+v, want file-token from file", cred)
	}
	if api.logins != 0 {
		t.Error("file token should not trigger login")
	}
}

func TestAcquire_FallsBackToLoginAndPersists(t *testing.T) {
	t.Setenv(auth.EnvToken, "")

	api := &fakeAuthenticator{token: "fresh-token"}
	prompt := &fakePrompter{email: "me@example.com", password: "secret"}
	store, path := newTestStore(t, api, prompt)

	cred, err := store.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if cred.Token != "fresh-token" || cred.Source != auth.SourceLogin {
		t.Errorf("got %+v, want fresh-token from login", cred)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("token file not written: %v", err)
	}
	if string(saved) != "fresh-token" {
		t.Errorf("token file holds %q, want fresh-token", saved)
	}
}

func TestAcquire_EmptyFileTriggersLogin(t *testing.T) {
	t.Setenv(auth.EnvToken, "")

	api := &fakeAuthenticator{token: "fresh-token"}
	prompt := &fakePrompter{}
	store, path := newTestStore(t, api, prompt)
	os.WriteFile(path, []byte("  \n"), 0o600)

	cred, err := store.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if cred.Source != auth.SourceLogin {
		t.Errorf("source: got %s, want login", cred.Source)
	}
}

func TestAcquire_FailedLoginWritesNothing(t *testing.T) {
	t.Setenv(auth.EnvToken, "")

	api := &fakeAuthenticator{err: errors.New("401 unauthorized")}
	prompt := &fakePrompter{}
	store, path := newTestStore(t, api, prompt)

	_, err := store.Acquire(context.Background())

	var ae *auth.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("error is %T, want *AuthError", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("failed login must not leave a token file behind")
	}
}

func TestLogout_ThenAcquireLogsIn(t *testing.T) {
	t.Setenv(auth.EnvToken, "")

	api := &fakeAuthenticator{token: "fresh-token"}
	prompt := &fakePrompter{}
	store, path := newTestStore(t, api, prompt)
	os.WriteFile(path, []byte("old-token"), 0o600)

	if err := store.Logout(); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	// idempotent on a missing file
	if err := store.Logout(); err != nil {
		t.Fatalf("second Logout error: %v", err)
	}

	cred, err := store.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if cred.Source != auth.SourceLogin {
		t.Errorf("source after logout: got %s, want login", cred.Source)
	}
	if api.logins != 1 {
		t.Errorf("logins: got %d, want 1", api.logins)
	}
}

func TestReauthenticate_SkipsFile(t *testing.T) {
	t.Setenv(auth.EnvToken, "")

	api := &fakeAuthenticator{token: "new-token"}
	prompt := &fakePrompter{}
	store, path := newTestStore(t, api, prompt)
	os.WriteFile(path, []byte("stale-token"), 0o600)

	cred, err := store.Reauthenticate(context.Background())
	if err != nil {
		t.Fatalf("Reauthenticate error: %v", err)
	}
	if cred.Token != "new-token" || cred.Source != auth.SourceLogin {
		t.Errorf("got %+v, want new-token from login", cred)
	}

	saved, _ := os.ReadFile(path)
	if string(saved) != "new-token" {
		t.Errorf("token file holds %q, want new-token", saved)
	}
}
