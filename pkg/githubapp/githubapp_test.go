package githubapp

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/alecthomas/assert/v2"
	ghinstallation "github.com/bradleyfalzon/ghinstallation/v2"
)

func testPrivateKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func TestNewInstallationTransport(t *testing.T) {
	t.Run("enterprise base url", func(t *testing.T) {
		rt, err := NewInstallationTransport(nil, 1, 2, testPrivateKey(t), "https://ghe.example.com/api/v3/")
		assert.NoError(t, err)
		tr, ok := rt.(*ghinstallation.Transport)
		assert.True(t, ok)
		assert.Equal(t, "https://ghe.example.com/api/v3", tr.BaseURL)
	})

	t.Run("invalid key", func(t *testing.T) {
		_, err := NewInstallationTransport(nil, 1, 2, []byte("not a pem"), "")
		assert.Error(t, err)
	})
}
