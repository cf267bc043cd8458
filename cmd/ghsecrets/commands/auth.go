package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/mscno/ghsecrets/pkg/auth"
)

type AuthCmd struct {
	Login  LoginCmd  `cmd:"" help:"Authenticate with GitHub using device flow."`
	Logout LogoutCmd `cmd:"" help:"Remove the stored token."`
	Status StatusCmd `cmd:"" help:"Show which credentials would be used."`

	GithubClientID string `env:"GHSECRETS_GITHUB_CLIENT_ID" help:"GitHub OAuth App Client ID."`
}

func (a *AuthCmd) provider(ctx *cliCtx) *auth.GithubProvider {
	return auth.NewGithubProvider(auth.Config{
		GithubClientID: a.GithubClientID,
	}, ctx.Keyring, os.Stdout, ctx.Logger)
}

type LoginCmd struct{}

func (c *LoginCmd) Run(ctx *cliCtx, parent *AuthCmd) error {
	if parent.GithubClientID == "" {
		return fmt.Errorf("GitHub Client ID must be provided via --github-client-id flag or GHSECRETS_GITHUB_CLIENT_ID env var")
	}
	ctx.Logger.Debug("starting GitHub device login flow")
	if err := parent.provider(ctx).Login(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cliCtx, parent *AuthCmd) error {
	if err := parent.provider(ctx).Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

type StatusCmd struct {
	EnvFile string `help:"Dotenv file to read credentials from" default:".env" short:"e"`
}

func (c *StatusCmd) Run(ctx *cliCtx) error {
	flags := GithubFlags{EnvFile: c.EnvFile}
	creds, err := flags.credentials(ctx)
	if errors.Is(err, auth.ErrNoCredentials) {
		fmt.Println("Not authenticated.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Authenticated with %s.\n", creds)
	return nil
}
