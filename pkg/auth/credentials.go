// Package auth resolves the credentials used to call the GitHub API.
//
// Credentials are always passed explicitly to the components that talk to
// GitHub; nothing below this package reads the process environment.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mscno/ghsecrets/pkg/githubapp"
	"golang.org/x/oauth2"
)

var (
	// ErrNoCredentials is returned when neither a token nor GitHub App
	// credentials are available.
	ErrNoCredentials = errors.New("no GitHub credentials found")
	// ErrInvalidCredentials is returned for incomplete GitHub App credentials.
	ErrInvalidCredentials = errors.New("invalid GitHub credentials")
)

// AppCredentials identify a GitHub App installation.
type AppCredentials struct {
	AppID          int64
	InstallationID int64
	// PrivateKey is the PEM-encoded private key of the app.
	PrivateKey []byte
}

// Credentials authenticate requests to the GitHub API. Exactly one of Token
// or App is used; Token wins when both are set.
type Credentials struct {
	Token string
	App   *AppCredentials
	// Source describes where the credentials were found. Informational only.
	Source string
}

// TokenCredentials returns bearer token credentials.
func TokenCredentials(token string) Credentials {
	return Credentials{Token: token}
}

// Validate checks that the credentials can be used without contacting GitHub.
func (c Credentials) Validate() error {
	if c.Token != "" {
		return nil
	}
	if c.App == nil {
		return ErrNoCredentials
	}
	if c.App.AppID == 0 || c.App.InstallationID == 0 {
		return fmt.Errorf("%w: GitHub App ID and installation ID are required", ErrInvalidCredentials)
	}
	if len(c.App.PrivateKey) == 0 {
		return fmt.Errorf("%w: GitHub App private key is empty", ErrInvalidCredentials)
	}
	return nil
}

// Transport wraps base so that every request is authenticated. apiURL is
// the REST API root and only matters for GitHub App credentials on GitHub
// Enterprise Server.
func (c Credentials) Transport(base http.RoundTripper, apiURL string) (http.RoundTripper, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if base == nil {
		base = http.DefaultTransport
	}
	if c.Token != "" {
		return &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"}),
			Base:   base,
		}, nil
	}
	return githubapp.NewInstallationTransport(base, c.App.AppID, c.App.InstallationID, c.App.PrivateKey, apiURL)
}

// String never includes the token or the private key.
func (c Credentials) String() string {
	switch {
	case c.Token != "":
		return "token from " + c.sourceOr("caller")
	case c.App != nil:
		return fmt.Sprintf("GitHub App %d installation %d from %s", c.App.AppID, c.App.InstallationID, c.sourceOr("caller"))
	}
	return "no credentials"
}

// LogValue implements slog.LogValuer so credentials can be logged safely.
func (c Credentials) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

func (c Credentials) sourceOr(def string) string {
	if c.Source == "" {
		return def
	}
	return c.Source
}
