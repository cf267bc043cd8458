package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/go-michi/michi"
	"github.com/mscno/ghsecrets/pkg/oskeyring"
	"golang.org/x/oauth2"
)

func fakeDeviceFlow(t *testing.T) *httptest.Server {
	t.Helper()
	r := michi.NewRouter()
	r.Handle("POST /login/device/code", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.NoError(t, req.ParseForm())
		assert.Equal(t, "client-123", req.PostForm.Get("client_id"))
		assert.Equal(t, "repo", req.PostForm.Get("scope"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"device_code":"dc","user_code":"ABCD-1234","verification_uri":"https://github.example/login/device","expires_in":900,"interval":1}`))
	}))
	r.Handle("POST /login/oauth/access_token", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_device_token","token_type":"bearer","scope":"repo"}`))
	}))
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestGithubProviderLoginLogout(t *testing.T) {
	ts := fakeDeviceFlow(t)
	keyring := oskeyring.NewMemoryStore()
	var out bytes.Buffer

	provider := NewGithubProvider(Config{
		GithubClientID: "client-123",
		Endpoint: &oauth2.Endpoint{
			DeviceAuthURL: ts.URL + "/login/device/code",
			TokenURL:      ts.URL + "/login/oauth/access_token",
		},
	}, keyring, &out, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	assert.NoError(t, provider.Login(ctx))
	assert.Contains(t, out.String(), "ABCD-1234")
	assert.Contains(t, out.String(), "https://github.example/login/device")

	token, err := provider.Token()
	assert.NoError(t, err)
	assert.Equal(t, "gho_device_token", token)

	// the resolver picks the stored token up
	creds, err := Resolver{Lookup: lookupFrom(nil), Keyring: keyring}.Resolve()
	assert.NoError(t, err)
	assert.Equal(t, "gho_device_token", creds.Token)

	assert.NoError(t, provider.Logout())
	_, err = provider.Token()
	assert.IsError(t, err, oskeyring.ErrNotFound)
}

func TestGithubProviderLoginRequiresClientID(t *testing.T) {
	provider := NewGithubProvider(Config{}, oskeyring.NewMemoryStore(), &bytes.Buffer{}, nil)
	assert.Error(t, provider.Login(context.Background()))
}
