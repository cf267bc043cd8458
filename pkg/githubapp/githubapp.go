// Package githubapp authenticates API requests as a GitHub App installation.
package githubapp

import (
	"fmt"
	"net/http"
	"strings"

	ghinstallation "github.com/bradleyfalzon/ghinstallation/v2"
)

// NewInstallationTransport returns a round tripper that mints and refreshes
// installation tokens for the app and adds them to every request.
// privateKey should be the PEM-encoded content of the app's private key.
// apiURL is only needed for GitHub Enterprise Server, where the installation
// token endpoint lives under the enterprise API root.
func NewInstallationTransport(base http.RoundTripper, appID, installationID int64, privateKey []byte, apiURL string) (http.RoundTripper, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	tr, err := ghinstallation.New(base, appID, installationID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("could not instantiate installation transport: %w", err)
	}
	if apiURL != "" {
		tr.BaseURL = strings.TrimSuffix(apiURL, "/")
	}
	return tr, nil
}
