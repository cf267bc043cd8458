// Package config loads the repository reference and the secrets to provision
// from a JSON, YAML or TOML file, preserving the order the secrets were written in.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mscno/ghsecrets/pkg/fileutils"
)

// Top level keys understood in a configuration document.
const (
	RepoField               = "repo"
	SecretsField            = "secrets"
	EnvironmentSecretsField = "ENVIRONMENT_SECRETS"
)

// ErrConfig is wrapped by every error returned from this package.
var ErrConfig = errors.New("invalid configuration")

// RepositoryRef identifies the target repository.
type RepositoryRef struct {
	Owner string
	Name  string
}

// ParseRepositoryRef splits an "owner/name" identifier on its first slash.
// Both halves must be non-empty and the name may not contain another slash.
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return RepositoryRef{}, fmt.Errorf("%w: repository %q is not in owner/name form", ErrConfig, s)
	}
	return newRepositoryRef(owner, name)
}

func newRepositoryRef(owner, name string) (RepositoryRef, error) {
	owner, name = strings.TrimSpace(owner), strings.TrimSpace(name)
	if owner == "" || name == "" {
		return RepositoryRef{}, fmt.Errorf("%w: repository owner and name are required", ErrConfig)
	}
	if strings.Contains(name, "/") {
		return RepositoryRef{}, fmt.Errorf("%w: repository name %q contains a slash", ErrConfig, name)
	}
	return RepositoryRef{Owner: owner, Name: name}, nil
}

func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether the reference was never set.
func (r RepositoryRef) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// Secret is a single plaintext value to provision. Value must never be logged.
type Secret struct {
	Name  string
	Value string
}

// Environment is a named deployment environment with its own secrets.
type Environment struct {
	Name    string
	Secrets []Secret
}

// Config is the parsed configuration document.
type Config struct {
	Repository   RepositoryRef
	Secrets      []Secret
	Environments []Environment
}

// Count returns the number of secrets across the repository and all environments.
func (c *Config) Count() int {
	n := len(c.Secrets)
	for _, env := range c.Environments {
		n += len(env.Secrets)
	}
	return n
}

// Load reads and parses the configuration file at path. The format is taken
// from the file extension.
func Load(path string) (*Config, error) {
	format, err := fileutils.ParseFormat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document of the given format.
func Parse(data []byte, format fileutils.FileFormat) (*Config, error) {
	b := newBuilder()
	var err error
	switch format {
	case fileutils.JSON:
		err = parseJSON(data, b)
	case fileutils.YAML, fileutils.YML:
		err = parseYAML(data, b)
	case fileutils.TOML:
		err = parseTOML(data, b)
	default:
		err = fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		if errors.Is(err, ErrConfig) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return b.build()
}

// builder accumulates entries in document order. A repeated key keeps the
// position of its first occurrence and the value of its last.
type builder struct {
	repo     RepositoryRef
	repoErr  error
	repoSeen bool

	secrets   []Secret
	secretIdx map[string]int

	envs   []Environment
	envIdx map[string]int
	envSec []map[string]int
}

func newBuilder() *builder {
	return &builder{
		secretIdx: make(map[string]int),
		envIdx:    make(map[string]int),
	}
}

func (b *builder) setRepo(ref RepositoryRef, err error) {
	b.repo, b.repoErr, b.repoSeen = ref, err, true
}

func (b *builder) addSecret(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: secret with empty name", ErrConfig)
	}
	if i, ok := b.secretIdx[name]; ok {
		b.secrets[i].Value = value
		return nil
	}
	b.secretIdx[name] = len(b.secrets)
	b.secrets = append(b.secrets, Secret{Name: name, Value: value})
	return nil
}

func (b *builder) addEnvironment(env string) (int, error) {
	if strings.TrimSpace(env) == "" {
		return 0, fmt.Errorf("%w: environment with empty name", ErrConfig)
	}
	if i, ok := b.envIdx[env]; ok {
		return i, nil
	}
	b.envIdx[env] = len(b.envs)
	b.envs = append(b.envs, Environment{Name: env})
	b.envSec = append(b.envSec, make(map[string]int))
	return len(b.envs) - 1, nil
}

func (b *builder) addEnvironmentSecret(env, name, value string) error {
	i, err := b.addEnvironment(env)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: secret with empty name in environment %q", ErrConfig, env)
	}
	if j, ok := b.envSec[i][name]; ok {
		b.envs[i].Secrets[j].Value = value
		return nil
	}
	b.envSec[i][name] = len(b.envs[i].Secrets)
	b.envs[i].Secrets = append(b.envs[i].Secrets, Secret{Name: name, Value: value})
	return nil
}

func (b *builder) build() (*Config, error) {
	if !b.repoSeen {
		return nil, fmt.Errorf("%w: missing %q", ErrConfig, RepoField)
	}
	if b.repoErr != nil {
		return nil, b.repoErr
	}
	return &Config{
		Repository:   b.repo,
		Secrets:      b.secrets,
		Environments: b.envs,
	}, nil
}
