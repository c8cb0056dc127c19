package gauth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
)

const tokenFileName = "token.json"

// Scopes requested from Google: read-only Drive access plus the Photos
// Library scopes needed to upload and manage app-created album content.
var scopes = []string{
	drivev3.DriveReadonlyScope,
	"https://www.googleapis.com/auth/photoslibrary.appendonly",
	"https://www.googleapis.com/auth/photoslibrary.edit.appcreateddata",
	"https://www.googleapis.com/auth/photoslibrary.readonly",
	"https://www.googleapis.com/auth/photoslibrary.readonly.appcreateddata",
}

// Authenticator manages the oauth token lifecycle: cached token reuse,
// refresh persistence, and the interactive code flow for first runs.
type Authenticator struct {
	oauthConfig *oauth2.Config
	tokenPath   string
	openBrowser bool

	// input supplies the verification code during the interactive flow.
	input io.Reader
}

// New builds an authenticator from an oauth client secret file. Tokens
// are cached under tokenDir.
func New(clientSecretFile, tokenDir string, openBrowser bool) (*Authenticator, error) {
	data, err := os.ReadFile(clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret %s: %w", clientSecretFile, err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret %s: %w", clientSecretFile, err)
	}
	return &Authenticator{
		oauthConfig: cfg,
		tokenPath:   filepath.Join(tokenDir, tokenFileName),
		openBrowser: openBrowser,
		input:       os.Stdin,
	}, nil
}

// Reset removes the cached token so the next run re-authenticates.
func (a *Authenticator) Reset() error {
	if err := os.Remove(a.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token %s: %w", a.tokenPath, err)
	}
	return nil
}

// Client returns an http client that attaches and refreshes the oauth
// token. Refreshed tokens are written back to the cache so later runs
// skip the interactive flow.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	logger := logutil.GetLogger(ctx)

	tok, err := a.loadToken()
	if err != nil {
		logger.Info("no cached token, starting authorization flow",
			zap.String("path", a.tokenPath))
		tok, err = a.authorize(ctx)
		if err != nil {
			return nil, err
		}
	}

	src := &savingTokenSource{
		src:  a.oauthConfig.TokenSource(ctx, tok),
		path: a.tokenPath,
		last: tok,
	}
	return oauth2.NewClient(ctx, src), nil
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", a.tokenPath, err)
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, errors.New("cached token expired and not refreshable")
	}
	return &tok, nil
}

func (a *Authenticator) authorize(ctx context.Context) (*oauth2.Token, error) {
	logger := logutil.GetLogger(ctx)

	authURL := a.oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Visit the following URL to authorize access:\n\n%s\n\nEnter the verification code: ", authURL)
	if a.openBrowser {
		if err := OpenBrowser(authURL); err != nil {
			logger.Warn("open browser failed", zap.Error(err))
		}
	}

	reader := bufio.NewReader(a.input)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("read verification code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return nil, errors.New("empty verification code")
	}

	tok, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange verification code: %w", err)
	}
	if err := saveToken(a.tokenPath, tok); err != nil {
		return nil, err
	}
	logger.Info("authorization complete", zap.String("path", a.tokenPath))
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure token dir %s: %w", filepath.Dir(path), err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token %s: %w", path, err)
	}
	return nil
}

// savingTokenSource persists tokens whenever the wrapped source hands
// back a refreshed one.
type savingTokenSource struct {
	src  oauth2.TokenSource
	path string
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := saveToken(s.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
