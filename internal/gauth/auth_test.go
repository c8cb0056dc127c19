package gauth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

const sampleClientSecret = `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "shhh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob", "http://localhost"]
  }
}`

func newTestAuthenticator(t *testing.T) (*Authenticator, string) {
	t.Helper()
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "client_secret.json")
	if err := os.WriteFile(secretPath, []byte(sampleClientSecret), 0o600); err != nil {
		t.Fatalf("write client secret: %v", err)
	}
	a, err := New(secretPath, dir, false)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return a, dir
}

func TestNewParsesClientSecret(t *testing.T) {
	a, dir := newTestAuthenticator(t)
	assert.Equal(t, "client-id.apps.googleusercontent.com", a.oauthConfig.ClientID)
	assert.Equal(t, filepath.Join(dir, "token.json"), a.tokenPath)
}

func TestNewMissingSecretFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.json"), t.TempDir(), false)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	tok := &oauth2.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := saveToken(a.tokenPath, tok); err != nil {
		t.Fatalf("saveToken: %v", err)
	}

	loaded, err := a.loadToken()
	if err != nil {
		t.Fatalf("loadToken: %v", err)
	}
	assert.Equal(t, "at", loaded.AccessToken)
	assert.Equal(t, "rt", loaded.RefreshToken)
}

func TestLoadTokenRejectsExpiredWithoutRefresh(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	tok := &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}
	if err := saveToken(a.tokenPath, tok); err != nil {
		t.Fatalf("saveToken: %v", err)
	}

	_, err := a.loadToken()
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	if err := saveToken(a.tokenPath, &oauth2.Token{AccessToken: "at", RefreshToken: "rt"}); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	assert.NoError(t, a.Reset())
	_, err := os.Stat(a.tokenPath)
	assert.True(t, os.IsNotExist(err))

	// resetting again is not an error
	assert.NoError(t, a.Reset())
}
