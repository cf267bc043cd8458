package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{"token", TokenCredentials("t"), nil},
		{"empty", Credentials{}, ErrNoCredentials},
		{"app without installation", Credentials{App: &AppCredentials{AppID: 1, PrivateKey: []byte("k")}}, ErrInvalidCredentials},
		{"app without key", Credentials{App: &AppCredentials{AppID: 1, InstallationID: 2}}, ErrInvalidCredentials},
		{"app", Credentials{App: &AppCredentials{AppID: 1, InstallationID: 2, PrivateKey: []byte("k")}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.IsError(t, err, tt.want)
			}
		})
	}
}

func TestCredentialsTransportSetsBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer ts.Close()

	rt, err := TokenCredentials("s3cr3t-token").Transport(nil, "")
	assert.NoError(t, err)

	resp, err := (&http.Client{Transport: rt}).Get(ts.URL)
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer s3cr3t-token", got)
}

func TestCredentialsTransportRequiresCredentials(t *testing.T) {
	_, err := Credentials{}.Transport(nil, "")
	assert.IsError(t, err, ErrNoCredentials)
}

func TestCredentialsNeverPrintSecrets(t *testing.T) {
	creds := Credentials{Token: "s3cr3t-token", Source: SourceEnvironment}
	assert.NotContains(t, creds.String(), "s3cr3t")
	assert.NotContains(t, fmt.Sprintf("%v", creds), "s3cr3t")

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("resolved", "credentials", creds)
	assert.NotContains(t, buf.String(), "s3cr3t")
	assert.Contains(t, buf.String(), "token from environment")

	app := Credentials{App: &AppCredentials{AppID: 7, InstallationID: 9, PrivateKey: []byte("-----BEGIN")}}
	assert.Equal(t, "GitHub App 7 installation 9 from caller", app.String())
}
