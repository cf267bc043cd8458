package keys

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/mscno/ghsecrets/pkg/crypto"
)

func TestFingerprint(t *testing.T) {
	var kp crypto.Keypair
	assert.NoError(t, kp.Generate())

	fp := Fingerprint(kp.PublicString())
	assert.Equal(t, 16, len(strings.Split(fp, ":")))
	assert.Equal(t, fp, Fingerprint(kp.PublicString()))

	var other crypto.Keypair
	assert.NoError(t, other.Generate())
	assert.NotEqual(t, fp, Fingerprint(other.PublicString()))
}

func TestFingerprintWords(t *testing.T) {
	var kp crypto.Keypair
	assert.NoError(t, kp.Generate())

	phrase := FingerprintWords(kp.PublicString())
	words := strings.Split(phrase, "-")
	assert.Equal(t, 6, len(words))
	for _, w := range words {
		assert.NotZero(t, w)
	}
	assert.Equal(t, phrase, FingerprintWords(kp.PublicString()))
}

func TestFingerprintMalformedKey(t *testing.T) {
	assert.Equal(t, Fingerprint("not a key"), Fingerprint("not a key"))
	assert.NotEqual(t, Fingerprint("not a key"), Fingerprint("another"))
}
