// Package transport provides http.RoundTripper middleware for the GitHub client.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base with the given middlewares. The first middleware is the
// outermost one and sees the request first.
func Chain(base http.RoundTripper, middlewares ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// WithRateLimit delays requests so they leave at most at the limiter's rate.
// It never retries; a request whose context ends while waiting fails with
// the context error.
func WithRateLimit(limiter *rate.Limiter) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(r)
		})
	}
}

// WithLogger logs every request at debug level. Only the method, path,
// status and duration are logged: headers carry the credentials.
func WithLogger(logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			if err != nil {
				logger.Debug("request failed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"error", err,
				)
				return resp, err
			}
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", resp.StatusCode,
				"duration", time.Since(start),
			)
			return resp, nil
		})
	}
}
