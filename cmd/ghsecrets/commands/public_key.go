package commands

import (
	"fmt"

	"github.com/mscno/ghsecrets/pkg/actions"
	"github.com/mscno/ghsecrets/pkg/config"
	"github.com/mscno/ghsecrets/pkg/keys"
)

type PublicKeyCmd struct {
	Repo string `arg:"" help:"Repository as owner/name"`

	GithubFlags `embed:""`
}

func (c *PublicKeyCmd) Run(ctx *cliCtx) error {
	repo, err := config.ParseRepositoryRef(c.Repo)
	if err != nil {
		return err
	}
	creds, err := c.credentials(ctx)
	if err != nil {
		return err
	}
	client, err := actions.NewClient(creds, c.clientOptions(ctx)...)
	if err != nil {
		return err
	}
	key, err := client.PublicKey(ctx, repo)
	if err != nil {
		return err
	}

	fmt.Printf("Repository:  %s\n", repo)
	fmt.Printf("Key ID:      %s\n", key.KeyID)
	fmt.Printf("Key:         %s\n", key.Key)
	fmt.Printf("Fingerprint: %s\n", keys.Fingerprint(key.Key))
	fmt.Printf("Words:       %s\n", keys.FingerprintWords(key.Key))
	return nil
}
