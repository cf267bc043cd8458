// Package ghsecrets provisions GitHub Actions secrets for a repository and
// its deployment environments.
//
// A run fetches the repository public key once, seals every value with it
// immediately before writing that value, and keeps going when a single write
// fails. Failures are collected into the Result.
package ghsecrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mscno/ghsecrets/pkg/actions"
	"github.com/mscno/ghsecrets/pkg/auth"
	"github.com/mscno/ghsecrets/pkg/config"
	"github.com/mscno/ghsecrets/pkg/crypto"
	"golang.org/x/sync/errgroup"
)

// KeyProvider fetches a repository's Actions public key.
type KeyProvider interface {
	PublicKey(ctx context.Context, repo config.RepositoryRef) (actions.PublicKey, error)
}

// SecretWriter creates or replaces sealed secrets.
type SecretWriter interface {
	PutRepoSecret(ctx context.Context, repo config.RepositoryRef, name string, secret actions.EncryptedSecret) error
	PutEnvSecret(ctx context.Context, repo config.RepositoryRef, env, name string, secret actions.EncryptedSecret) error
}

// Client is what a run needs from GitHub. *actions.Client implements it.
type Client interface {
	KeyProvider
	SecretWriter
}

// Sealer encrypts values for the repository key. *crypto.Sealer implements it.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
}

// Pipeline provisions the secrets of one configuration. The zero value is
// ready to use.
type Pipeline struct {
	// NewClient builds the GitHub client from validated credentials.
	// Defaults to actions.NewClient.
	NewClient func(creds auth.Credentials) (Client, error)
	// NewSealer parses the repository public key. Defaults to crypto.NewSealer.
	NewSealer func(publicKey string) (Sealer, error)
	Logger    *slog.Logger
	// Concurrency is the number of secrets written at once. Values below 2
	// write one secret at a time in configuration order.
	Concurrency int
	// DryRun seals every value but skips the writes.
	DryRun bool
}

// RunFile loads the configuration at path and runs it.
func (p *Pipeline) RunFile(ctx context.Context, path string, creds auth.Credentials) (*Result, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, stageErr(StageConfig, err)
	}
	return p.Run(ctx, cfg, creds)
}

// Run provisions every secret in cfg. The returned error is a *StageError
// for failures that stop the run; failed writes are reported in the Result
// only, see Result.Err.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config, creds auth.Credentials) (*Result, error) {
	logger := p.logger()

	if cfg == nil || cfg.Repository.IsZero() {
		return nil, stageErr(StageConfig, fmt.Errorf("%w: repository is required", config.ErrConfig))
	}
	if err := creds.Validate(); err != nil {
		return nil, stageErr(StageAuth, err)
	}
	client, err := p.newClient(creds)
	if err != nil {
		return nil, stageErr(StageAuth, err)
	}

	repo := cfg.Repository
	key, err := client.PublicKey(ctx, repo)
	if err != nil {
		return nil, stageErr(StageKeyFetch, err)
	}
	logger.Debug("fetched public key", "repository", repo.String(), "key_id", key.KeyID)

	sealer, err := p.newSealer(key.Key)
	if err != nil {
		return nil, stageErr(StageEncrypt, fmt.Errorf("public key %s: %w", key.KeyID, err))
	}

	jobs := plan(cfg)
	res := &Result{
		Repository: repo,
		KeyID:      key.KeyID,
		DryRun:     p.DryRun,
		Outcomes:   make([]Outcome, len(jobs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Concurrency, 1))
	for i, j := range jobs {
		res.Outcomes[i] = Outcome{Environment: j.env, Name: j.name}
	}
	for i, j := range jobs {
		if err := gctx.Err(); err != nil {
			res.Outcomes[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				res.Outcomes[i].Err = err
				return err
			}
			sealed, err := sealer.Seal([]byte(j.value))
			if err != nil {
				res.Outcomes[i].Err = err
				return stageErr(StageEncrypt, fmt.Errorf("sealing %s: %w", res.Outcomes[i].Target(), err))
			}
			if p.DryRun {
				logger.Info("sealed secret (dry run)", "environment", j.env, "secret", j.name)
				return nil
			}

			secret := actions.EncryptedSecret{Value: sealed, KeyID: key.KeyID}
			if j.env == "" {
				err = client.PutRepoSecret(gctx, repo, j.name, secret)
			} else {
				err = client.PutEnvSecret(gctx, repo, j.env, j.name, secret)
			}
			res.Outcomes[i].Err = err
			if err != nil {
				logger.Error("failed to write secret", "environment", j.env, "secret", j.name, "error", err)
				return nil
			}
			logger.Info("wrote secret", "environment", j.env, "secret", j.name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var se *StageError
		if !errors.As(err, &se) {
			err = stageErr(StageUpsert, err)
		}
		return res, err
	}

	logger.Debug("run finished", "repository", repo.String(), "summary", res.Summary())
	return res, nil
}

type job struct {
	env   string
	name  string
	value string
}

func plan(cfg *config.Config) []job {
	jobs := make([]job, 0, cfg.Count())
	for _, s := range cfg.Secrets {
		jobs = append(jobs, job{name: s.Name, value: s.Value})
	}
	for _, env := range cfg.Environments {
		for _, s := range env.Secrets {
			jobs = append(jobs, job{env: env.Name, name: s.Name, value: s.Value})
		}
	}
	return jobs
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) newClient(creds auth.Credentials) (Client, error) {
	if p.NewClient != nil {
		return p.NewClient(creds)
	}
	return actions.NewClient(creds, actions.WithLogger(p.logger()))
}

func (p *Pipeline) newSealer(publicKey string) (Sealer, error) {
	if p.NewSealer != nil {
		return p.NewSealer(publicKey)
	}
	return crypto.NewSealer(publicKey)
}
