package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mscno/ghsecrets/pkg/actions"
	"github.com/mscno/ghsecrets/pkg/auth"
	"github.com/mscno/ghsecrets/pkg/dotenv"
	"github.com/mscno/ghsecrets/pkg/fileutils"
	"github.com/mscno/ghsecrets/pkg/oskeyring"
	"golang.org/x/time/rate"
)

type cliCtx struct {
	Debug   bool
	Logger  *slog.Logger
	Keyring oskeyring.Store
	context.Context
}

type cli struct {
	Debug     bool             `help:"Enable debug logging" env:"GHSECRETS_DEBUG"`
	Apply     ApplyCmd         `cmd:"" default:"withargs" help:"Provision the secrets of a config file (default command)"`
	PublicKey PublicKeyCmd     `cmd:"" help:"Show the Actions public key of a repository"`
	Auth      AuthCmd          `cmd:"" help:"Manage the GitHub token stored in the OS keyring"`
	Version   kong.VersionFlag `help:"Show version"`
}

func Execute(version string) {
	var cli cli
	ctx := kong.Parse(&cli,
		kong.UsageOnError(),
		kong.Name("ghsecrets"),
		kong.Description("ghsecrets provisions GitHub Actions repository and environment secrets"),
		kong.Vars{"version": version},
	)

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := ctx.Run(&cliCtx{
		Debug:   cli.Debug,
		Logger:  logger,
		Keyring: oskeyring.NewOSStore(),
		Context: runCtx,
	})
	ctx.FatalIfErrorf(err)
}

// GithubFlags are shared by every command that calls the GitHub API.
type GithubFlags struct {
	EnvFile       string        `help:"Dotenv file to read credentials from" default:".env" short:"e"`
	APIURL        string        `name:"api-url" help:"GitHub REST API root" env:"GITHUB_API_URL"`
	EnterpriseURL string        `help:"GitHub Enterprise Server URL" env:"GHSECRETS_ENTERPRISE_URL"`
	Rate          float64       `help:"Maximum requests per second, 0 for no limit" default:"0"`
	Timeout       time.Duration `help:"Timeout of a single request" default:"30s"`
}

// credentials resolves credentials from the process environment, the dotenv
// file and the keyring. Only an explicitly named dotenv file must exist.
func (f *GithubFlags) credentials(ctx *cliCtx) (auth.Credentials, error) {
	lookup, err := dotenv.Lookup(f.EnvFile, f.EnvFile != "" && f.EnvFile != dotenv.DefaultFile)
	if err != nil {
		return auth.Credentials{}, err
	}
	creds, err := auth.Resolver{Lookup: auth.LookupFunc(lookup), Keyring: ctx.Keyring}.Resolve()
	if err != nil {
		return auth.Credentials{}, err
	}
	ctx.Logger.Debug("using credentials", "credentials", creds)
	return creds, nil
}

func (f *GithubFlags) clientOptions(ctx *cliCtx) []actions.Option {
	opts := []actions.Option{actions.WithLogger(ctx.Logger)}
	switch {
	case f.APIURL != "":
		opts = append(opts, actions.WithBaseURL(f.APIURL))
	case f.EnterpriseURL != "":
		opts = append(opts, actions.WithEnterpriseURL(f.EnterpriseURL))
	}
	if f.Timeout > 0 {
		opts = append(opts, actions.WithTimeout(f.Timeout))
	}
	if f.Rate > 0 {
		opts = append(opts, actions.WithRateLimit(rate.Limit(f.Rate), 1))
	}
	return opts
}

// processFileOrProfile returns input when it names a config file, and the
// config file of the profile otherwise: "prod" becomes "config.prod.json".
func processFileOrProfile(input string, defaultFileFormat fileutils.FileFormat) (filename string, err error) {
	if fileutils.IsConfigFile(input) {
		return input, nil
	}

	profile := input
	if strings.ContainsAny(profile, ".\\/") {
		return "", fmt.Errorf("invalid profile name: %s - should not contain dots or path separators", input)
	}
	for _, char := range profile {
		if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyz0123456789-_", char) {
			return "", fmt.Errorf("invalid profile name: %s - should be lowercase alphanumeric", input)
		}
	}

	filename = fileutils.GenerateFilename(defaultFileFormat, profile)
	return path.Clean(filename), nil
}
