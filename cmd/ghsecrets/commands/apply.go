package commands

import (
	"errors"
	"fmt"

	"github.com/mscno/ghsecrets"
	"github.com/mscno/ghsecrets/pkg/actions"
	"github.com/mscno/ghsecrets/pkg/auth"
	"github.com/mscno/ghsecrets/pkg/fileutils"
)

type ApplyCmd struct {
	Config      string `arg:"" optional:"" help:"Config file, or profile name resolving to config.<profile>.json" default:""`
	Format      string `help:"File format used for profile names" default:".json" short:"f"`
	DryRun      bool   `help:"Fetch the key and seal every value without writing anything" short:"n"`
	Concurrency int    `help:"Number of secrets written at once" default:"1" short:"c"`

	GithubFlags `embed:""`
}

func (c *ApplyCmd) Run(ctx *cliCtx) error {
	format, err := fileutils.ParseFormat(c.Format)
	if err != nil {
		return fmt.Errorf("error parsing format flag %q: %v", c.Format, err)
	}
	filePath, err := processFileOrProfile(c.Config, format)
	if err != nil {
		return fmt.Errorf("error processing file or profile %q: %v", c.Config, err)
	}

	// Missing credentials are reported by the pipeline once the config
	// has been validated.
	creds, err := c.credentials(ctx)
	switch {
	case errors.Is(err, auth.ErrNoCredentials):
		ctx.Logger.Debug("no credentials found", "error", err)
	case err != nil:
		return err
	}

	p := &ghsecrets.Pipeline{
		NewClient: func(creds auth.Credentials) (ghsecrets.Client, error) {
			return actions.NewClient(creds, c.clientOptions(ctx)...)
		},
		Logger:      ctx.Logger,
		Concurrency: c.Concurrency,
		DryRun:      c.DryRun,
	}
	ctx.Logger.Debug("applying config", "file", filePath, "dry_run", c.DryRun, "concurrency", c.Concurrency)

	res, err := p.RunFile(ctx, filePath, creds)
	if res != nil {
		printReport(res)
	}
	if err != nil {
		return err
	}
	return res.Err()
}

func printReport(res *ghsecrets.Result) {
	fmt.Printf("%s: %s\n", res.Repository, res.Summary())
	failures := res.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Println("Failed:")
	for _, o := range failures {
		fmt.Printf("  %s: %v\n", o.Target(), o.Err)
	}
}
