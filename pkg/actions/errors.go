package actions

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-github/v71/github"
)

var (
	// ErrAuth is returned when GitHub rejects the credentials (401 or 403).
	ErrAuth = errors.New("github rejected the credentials")
	// ErrNotFound is returned for a 404, which GitHub also uses for
	// repositories the credentials cannot see.
	ErrNotFound = errors.New("github resource not found")
	// ErrTransport is returned for network failures and any other non-2xx status.
	ErrTransport = errors.New("github request failed")
)

// UpsertError reports a secret write that GitHub did not accept.
type UpsertError struct {
	Repository  string
	Environment string
	Name        string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	// Body is the error message GitHub returned.
	Body string
	// Err is ErrAuth, ErrNotFound or ErrTransport wrapping the underlying error.
	Err error
}

func (e *UpsertError) Error() string {
	target := e.Name
	if e.Environment != "" {
		target = e.Environment + "/" + e.Name
	}
	if e.Status == 0 {
		return fmt.Sprintf("upsert %s in %s: %v", target, e.Repository, e.Err)
	}
	return fmt.Sprintf("upsert %s in %s: %d %s: %s", target, e.Repository, e.Status, http.StatusText(e.Status), e.Body)
}

func (e *UpsertError) Unwrap() error {
	return e.Err
}

// maxBodySize caps how much of a non-JSON error body is kept.
const maxBodySize = 1024

// classify maps a go-github error onto the package sentinels and extracts the
// status code and body when GitHub answered. Only the status decides the
// sentinel: every 401 and 403 is ErrAuth, including rate limited ones.
func classify(resp *github.Response, err error) (status int, body string, classified error) {
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &errResp):
		body = errResp.Message
		if errResp.Response != nil {
			status = errResp.Response.StatusCode
			if body == "" {
				body = readBody(errResp.Response)
			}
		}
	case errors.As(err, &rateErr):
		body = rateErr.Message
		if rateErr.Response != nil {
			status = rateErr.Response.StatusCode
		}
	case errors.As(err, &abuseErr):
		body = abuseErr.Message
		if abuseErr.Response != nil {
			status = abuseErr.Response.StatusCode
		}
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return status, body, fmt.Errorf("%w: %v", ErrAuth, err)
	case http.StatusNotFound:
		return status, body, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return status, body, fmt.Errorf("%w: %v", ErrTransport, err)
}

// readBody returns the raw error body, which go-github leaves readable after
// failing to decode it, e.g. an HTML page from a proxy.
func readBody(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
