// Package actions reads repository public keys and writes GitHub Actions
// secrets through the GitHub REST API.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v71/github"
	"github.com/mscno/ghsecrets/pkg/auth"
	"github.com/mscno/ghsecrets/pkg/config"
	"github.com/mscno/ghsecrets/pkg/transport"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// PublicKey is a repository's Actions public key.
type PublicKey struct {
	KeyID string
	// Key is the base64 encoded X25519 public key.
	Key string
}

// EncryptedSecret is a sealed secret value ready to be written.
type EncryptedSecret struct {
	// Value is the base64 encoded sealed box.
	Value string
	// KeyID identifies the PublicKey Value was sealed with.
	KeyID string
}

type options struct {
	baseURL       string
	enterpriseURL string
	transport     http.RoundTripper
	logger        *slog.Logger
	limiter       *rate.Limiter
	timeout       time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at a different REST API root, such as a
// fake server in tests. The URL is used as is.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithEnterpriseURL targets a GitHub Enterprise Server instance. Both
// "https://ghe.example.com" and "https://ghe.example.com/api/v3" are accepted.
func WithEnterpriseURL(u string) Option {
	return func(o *options) { o.enterpriseURL = u }
}

// WithTransport sets the base round tripper requests are sent with.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithLogger sets the logger. Requests are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRateLimit throttles outgoing requests. It does not retry.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) { o.limiter = rate.NewLimiter(limit, burst) }
}

// WithTimeout sets the per request timeout, 30 seconds by default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Client talks to the Actions secrets endpoints of one GitHub instance.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates a Client authenticated with creds. It does not contact
// GitHub; invalid credentials are reported without any network activity.
func NewClient(creds auth.Credentials, opts ...Option) (*Client, error) {
	o := options{logger: slog.Default(), timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	apiURL := o.baseURL
	if apiURL == "" && o.enterpriseURL != "" {
		apiURL = enterpriseAPIURL(o.enterpriseURL)
	}

	var middlewares []func(http.RoundTripper) http.RoundTripper
	if o.limiter != nil {
		middlewares = append(middlewares, transport.WithRateLimit(o.limiter))
	}
	middlewares = append(middlewares, transport.WithLogger(o.logger))

	rt, err := creds.Transport(transport.Chain(o.transport, middlewares...), apiURL)
	if err != nil {
		return nil, err
	}
	gh := github.NewClient(&http.Client{Transport: rt, Timeout: o.timeout})

	switch {
	case o.baseURL != "":
		base, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		gh.BaseURL = base
	case o.enterpriseURL != "":
		gh, err = gh.WithEnterpriseURLs(o.enterpriseURL, o.enterpriseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid enterprise URL: %w", err)
		}
	}

	return &Client{gh: gh, logger: o.logger}, nil
}

// enterpriseAPIURL mirrors go-github's handling of enterprise URLs.
func enterpriseAPIURL(u string) string {
	u = strings.TrimSuffix(u, "/")
	if !strings.HasSuffix(u, "/api/v3") {
		u += "/api/v3"
	}
	return u
}

// PublicKey fetches the repository's Actions public key. It makes exactly one
// request and never retries.
func (c *Client) PublicKey(ctx context.Context, repo config.RepositoryRef) (PublicKey, error) {
	key, resp, err := c.gh.Actions.GetRepoPublicKey(ctx, repo.Owner, repo.Name)
	if err != nil {
		status, body, err := classify(resp, err)
		c.logger.Debug("public key fetch failed", "repository", repo.String(), "status", status, "message", body)
		return PublicKey{}, fmt.Errorf("fetching public key for %s: %w", repo, err)
	}
	if key.GetKey() == "" || key.GetKeyID() == "" {
		return PublicKey{}, fmt.Errorf("fetching public key for %s: %w: response is missing key or key_id", repo, ErrTransport)
	}
	return PublicKey{KeyID: key.GetKeyID(), Key: key.GetKey()}, nil
}

// PutRepoSecret creates or replaces a repository secret.
func (c *Client) PutRepoSecret(ctx context.Context, repo config.RepositoryRef, name string, secret EncryptedSecret) error {
	u := fmt.Sprintf("repos/%v/%v/actions/secrets/%v",
		url.PathEscape(repo.Owner), url.PathEscape(repo.Name), url.PathEscape(name))
	status, err := c.putSecret(ctx, u, repo, "", name, secret)
	if err != nil {
		return err
	}
	c.logger.Debug("repository secret written", "repository", repo.String(), "secret", name, "status", status)
	return nil
}

// PutEnvSecret creates or replaces a secret of a deployment environment.
//
// go-github addresses environment secrets by numeric repository ID, which
// would cost an extra lookup, so the owner/repo form of the endpoint is
// requested directly.
func (c *Client) PutEnvSecret(ctx context.Context, repo config.RepositoryRef, env, name string, secret EncryptedSecret) error {
	u := fmt.Sprintf("repos/%v/%v/environments/%v/secrets/%v",
		url.PathEscape(repo.Owner), url.PathEscape(repo.Name), url.PathEscape(env), url.PathEscape(name))
	status, err := c.putSecret(ctx, u, repo, env, name, secret)
	if err != nil {
		return err
	}
	c.logger.Debug("environment secret written", "repository", repo.String(), "environment", env, "secret", name, "status", status)
	return nil
}

// putSecret sends the PUT itself; go-github's own helpers do not escape the
// secret name.
func (c *Client) putSecret(ctx context.Context, u string, repo config.RepositoryRef, env, name string, secret EncryptedSecret) (int, error) {
	req, err := c.gh.NewRequest(http.MethodPut, u, &github.EncryptedSecret{
		Name:           name,
		KeyID:          secret.KeyID,
		EncryptedValue: secret.Value,
	})
	if err != nil {
		return 0, &UpsertError{Repository: repo.String(), Environment: env, Name: name, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	resp, err := c.gh.Do(ctx, req, nil)
	if err != nil {
		return 0, upsertError(repo, env, name, resp, err)
	}
	return resp.StatusCode, nil
}

func upsertError(repo config.RepositoryRef, env, name string, resp *github.Response, err error) error {
	status, body, err := classify(resp, err)
	return &UpsertError{
		Repository:  repo.String(),
		Environment: env,
		Name:        name,
		Status:      status,
		Body:        body,
		Err:         err,
	}
}
