package transport

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.RoundTripper) http.RoundTripper {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Request: r}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "https://api.github.com/", nil)
	_, err := Chain(base, mark("outer"), mark("inner")).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name        string
		limit       rate.Limit
		burst       int
		numRequests int
		minDuration time.Duration
	}{
		{
			name:        "within burst",
			limit:       rate.Every(time.Second),
			burst:       5,
			numRequests: 5,
			minDuration: 0,
		},
		{
			name:        "throttled past burst",
			limit:       rate.Every(50 * time.Millisecond),
			burst:       1,
			numRequests: 4,
			minDuration: 150 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer ts.Close()

			client := &http.Client{Transport: Chain(nil, WithRateLimit(rate.NewLimiter(tt.limit, tt.burst)))}
			start := time.Now()
			for i := 0; i < tt.numRequests; i++ {
				resp, err := client.Get(ts.URL)
				require.NoError(t, err)
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
			assert.GreaterOrEqual(t, time.Since(start), tt.minDuration)
		})
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow() // drain the burst

	called := false
	rt := WithRateLimit(limiter)(RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "https://api.github.com/", nil).WithContext(ctx)
	_, err := rt.RoundTrip(req)
	assert.Error(t, err)
	assert.False(t, called)
}

func TestLoggerOmitsHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := &http.Client{Transport: Chain(nil, WithLogger(logger))}

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/repos/o/r/actions/secrets/A", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cr3t")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, buf.String(), "method=PUT")
	assert.Contains(t, buf.String(), "path=/repos/o/r/actions/secrets/A")
	assert.Contains(t, buf.String(), "status=201")
	assert.NotContains(t, buf.String(), "s3cr3t")
}
