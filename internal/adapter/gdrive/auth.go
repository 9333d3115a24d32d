package gdrive

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// DefaultTokenFile is the token file name inside the user config dir
const DefaultTokenFile = "gdrive-token.json"

// errNoToken tells the user how to obtain a token
var errNoToken = fmt.Errorf("%w: no usable Google Drive token, run 'cloudbrowse auth gdrive'", domain.ErrPermissionDenied)

// Authenticator runs the OAuth consent flow and keeps the token file
type Authenticator struct {
	config    *oauth2.Config
	tokenPath string
}

// AuthOption configures an Authenticator
type AuthOption func(*oauth2.Config)

// WithReadOnly requests read-only Drive access. Mutations then fail with
// a permission error.
func WithReadOnly() AuthOption {
	return func(c *oauth2.Config) { c.Scopes = []string{drive.DriveReadonlyScope} }
}

// NewAuthenticator creates an authenticator. An empty tokenPath means
// DefaultTokenFile in the user config dir.
func NewAuthenticator(clientID, clientSecret, tokenPath string, opts ...AuthOption) *Authenticator {
	if tokenPath == "" {
		tokenPath = DefaultTokenFile
		if dir, err := os.UserConfigDir(); err == nil {
			tokenPath = filepath.Join(dir, "cloudbrowse", DefaultTokenFile)
		}
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{drive.DriveScope},
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Authenticator{config: config, tokenPath: tokenPath}
}

// TokenSource returns a source over the saved token. Refreshed tokens are
// written back to the token file so the next run starts with them.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.loadToken()
	if err != nil {
		return nil, errNoToken
	}
	if !token.Valid() && token.RefreshToken == "" {
		return nil, errNoToken
	}

	src := &savingSource{
		auth: a,
		base: a.config.TokenSource(ctx, token),
		last: token.AccessToken,
	}
	// Fail now rather than on the first listing
	if _, err := src.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoToken, err)
	}
	return oauth2.ReuseTokenSource(token, src), nil
}

// savingSource persists every token that differs from the last one seen
type savingSource struct {
	auth *Authenticator
	base oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.auth.saveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		s.last = token.AccessToken
	}
	return token, nil
}

// Authenticate prints the consent URL to out, reads the authorization code
// (or the whole redirect URL) from in and saves the token
func (a *Authenticator) Authenticate(ctx context.Context, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	fmt.Fprintf(out, "Open this URL, allow access to Google Drive and paste the code shown:\n\n  %s\n\ncode: ",
		a.config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	code, err := parseCode(line, state)
	if err != nil {
		return nil, err
	}

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	if err := a.saveToken(token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return token, nil
}

// parseCode accepts a bare code or a redirect URL carrying code and state
func parseCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty authorization code", domain.ErrBadRequest)
	}
	if !strings.Contains(input, "code=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}
	q := u.Query()
	if got := q.Get("state"); got != "" && got != state {
		return "", fmt.Errorf("%w: state mismatch in redirect URL", domain.ErrBadRequest)
	}
	if q.Get("code") == "" {
		return "", fmt.Errorf("%w: redirect URL has no code", domain.ErrBadRequest)
	}
	return q.Get("code"), nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}
	return &token, nil
}

// saveToken writes the token with owner-only permissions via temp file
// and rename
func (a *Authenticator) saveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}

	tmp := a.tokenPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp token file: %w", err)
	}
	if err := os.Rename(tmp, a.tokenPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename token file: %w", err)
	}
	return nil
}

// TokenPath returns the path where the token is stored
func (a *Authenticator) TokenPath() string {
	return a.tokenPath
}

// Config returns the OAuth2 config
func (a *Authenticator) Config() *oauth2.Config {
	return a.config
}
