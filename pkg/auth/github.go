package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mscno/ghsecrets/pkg/oskeyring"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// DefaultScopes are requested by the device flow. Writing Actions secrets
// needs the repo scope for classic OAuth tokens.
var DefaultScopes = []string{"repo"}

// Config holds configuration for the device flow.
type Config struct {
	GithubClientID string
	Scopes         []string
	// Endpoint defaults to github.com. Set it for GitHub Enterprise Server.
	Endpoint *oauth2.Endpoint
	// Account is the keyring account the token is stored under.
	Account string
}

// GithubProvider logs in with the GitHub OAuth device flow and keeps the
// resulting token in the keyring.
type GithubProvider struct {
	Config  Config
	keyring oskeyring.Store
	out     io.Writer
	logger  *slog.Logger
}

// NewGithubProvider creates a new GithubProvider. Instructions for the user
// are written to out.
func NewGithubProvider(cfg Config, keyring oskeyring.Store, out io.Writer, logger *slog.Logger) *GithubProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Account == "" {
		cfg.Account = oskeyring.DefaultAccount
	}
	return &GithubProvider{
		Config:  cfg,
		keyring: keyring,
		out:     out,
		logger:  logger,
	}
}

func (p *GithubProvider) getOAuthConfig() *oauth2.Config {
	scopes := p.Config.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	endpoint := github.Endpoint
	if p.Config.Endpoint != nil {
		endpoint = *p.Config.Endpoint
	}
	return &oauth2.Config{
		ClientID: p.Config.GithubClientID,
		Scopes:   scopes,
		Endpoint: endpoint,
	}
}

// Login runs the device flow and stores the token. It blocks until the user
// has authorized the device, the code expires or ctx is done.
func (p *GithubProvider) Login(ctx context.Context) error {
	if p.Config.GithubClientID == "" {
		return errors.New("GitHub Client ID is required for authentication")
	}

	oauthConfig := p.getOAuthConfig()

	deviceCode, err := oauthConfig.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to request device code: %w", err)
	}
	p.logger.Debug("device code issued", "verification_uri", deviceCode.VerificationURI, "interval", deviceCode.Interval)

	fmt.Fprintf(p.out, "Please visit %s and enter the code: %s\n", deviceCode.VerificationURI, deviceCode.UserCode)
	fmt.Fprintf(p.out, "Waiting for the authorization to complete...\n")

	token, err := oauthConfig.DeviceAccessToken(ctx, deviceCode)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	if err := p.keyring.SetToken(p.Config.Account, token.AccessToken); err != nil {
		return err
	}
	p.logger.Debug("token stored in keyring", "account", p.Config.Account)
	fmt.Fprintln(p.out, "Successfully authenticated and token stored.")
	return nil
}

// Token returns the token stored by Login.
func (p *GithubProvider) Token() (string, error) {
	return p.keyring.Token(p.Config.Account)
}

// Logout removes the stored token.
func (p *GithubProvider) Logout() error {
	if err := p.keyring.DeleteToken(p.Config.Account); err != nil {
		return err
	}
	fmt.Fprintln(p.out, "Successfully logged out and removed the stored token.")
	return nil
}
