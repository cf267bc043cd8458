package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mscno/ghsecrets/pkg/oskeyring"
)

// Environment variables read by Resolver.
const (
	EnvToken             = "GITHUB_TOKEN"
	EnvAppID             = "GITHUB_APP_ID"
	EnvInstallationID    = "GITHUB_APP_INSTALLATION_ID"
	EnvAppPrivateKey     = "GITHUB_APP_PRIVATE_KEY"
	EnvAppPrivateKeyPath = "GITHUB_APP_PRIVATE_KEY_PATH"
)

// Credential sources reported in Credentials.Source.
const (
	SourceEnvironment = "environment"
	SourceGithubApp   = "github app environment"
	SourceKeyring     = "keyring"
)

// LookupFunc looks up a variable the way os.LookupEnv does.
type LookupFunc func(key string) (string, bool)

// Resolver finds credentials. The first match wins:
//  1. GITHUB_TOKEN
//  2. GITHUB_APP_ID, GITHUB_APP_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY
//     (or GITHUB_APP_PRIVATE_KEY_PATH)
//  3. a token stored in the keyring by `ghsecrets auth login`
type Resolver struct {
	// Lookup defaults to os.LookupEnv.
	Lookup LookupFunc
	// Keyring is optional.
	Keyring oskeyring.Store
	// Account is the keyring account, defaults to oskeyring.DefaultAccount.
	Account string
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

// Resolve returns the first credentials found, or ErrNoCredentials.
func (r Resolver) Resolve() (Credentials, error) {
	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if token := get(EnvToken); token != "" {
		return Credentials{Token: token, Source: SourceEnvironment}, nil
	}

	if appID := get(EnvAppID); appID != "" {
		app, err := r.appCredentials(appID, get)
		if err != nil {
			return Credentials{}, err
		}
		creds := Credentials{App: app, Source: SourceGithubApp}
		return creds, creds.Validate()
	}

	if r.Keyring != nil {
		account := r.Account
		if account == "" {
			account = oskeyring.DefaultAccount
		}
		token, err := r.Keyring.Token(account)
		switch {
		case err == nil && token != "":
			return Credentials{Token: token, Source: SourceKeyring}, nil
		case err != nil && !errors.Is(err, oskeyring.ErrNotFound):
			return Credentials{}, fmt.Errorf("reading keyring: %w", err)
		}
	}

	return Credentials{}, fmt.Errorf("%w: set %s or run `ghsecrets auth login`", ErrNoCredentials, EnvToken)
}

func (r Resolver) appCredentials(appID string, get func(string) string) (*AppCredentials, error) {
	id, err := strconv.ParseInt(appID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, EnvAppID, err)
	}
	var installationID int64
	if s := get(EnvInstallationID); s != "" {
		installationID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, EnvInstallationID, err)
		}
	}

	key := []byte(get(EnvAppPrivateKey))
	if path := get(EnvAppPrivateKeyPath); len(key) == 0 && path != "" {
		readFile := r.ReadFile
		if readFile == nil {
			readFile = os.ReadFile
		}
		key, err = readFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidCredentials, EnvAppPrivateKeyPath, err)
		}
	}
	return &AppCredentials{AppID: id, InstallationID: installationID, PrivateKey: key}, nil
}
