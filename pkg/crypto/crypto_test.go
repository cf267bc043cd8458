package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestKeypairGeneration(t *testing.T) {
	var kp Keypair

	t.Run("Generating keypairs", func(t *testing.T) {
		err := kp.Generate()
		assert.NoError(t, err)

		t.Run("should generate something that looks vaguely key-like", func(t *testing.T) {
			assert.NotEqual(t, kp.PublicString(), kp.PrivateString())
			assert.NotContains(t, kp.PublicString(), "AAAAAA")
			assert.NotContains(t, kp.PrivateString(), "AAAAAA")
		})

		t.Run("should not leave the keys zeroed", func(t *testing.T) {
			pubIsNull := kp.Public[0] == 0 && kp.Public[1] == 0 && kp.Public[2] == 0
			privIsNull := kp.Private[0] == 0 && kp.Private[1] == 0 && kp.Private[2] == 0
			assert.False(t, pubIsNull)
			assert.False(t, privIsNull)
		})
	})
}

func TestRoundtrip(t *testing.T) {
	var recipient Keypair
	assert.NoError(t, recipient.Generate())

	messages := map[string]string{
		"ascii":   "This is a test of the emergency broadcast system.",
		"empty":   "",
		"unicode": "contraseña-秘密-🔑",
		"newline": "line one\nline two\n",
	}
	for name, message := range messages {
		t.Run(name, func(t *testing.T) {
			ct, err := Seal(recipient.PublicString(), []byte(message))
			assert.NoError(t, err)

			raw, err := base64.StdEncoding.DecodeString(ct)
			assert.NoError(t, err)
			assert.Equal(t, len(message)+Overhead, len(raw))

			pt, err := recipient.Open(ct)
			assert.NoError(t, err)
			assert.Equal(t, message, string(pt))
		})
	}
}

func TestSealIsNotDeterministic(t *testing.T) {
	var recipient Keypair
	assert.NoError(t, recipient.Generate())

	sealer, err := NewSealer(recipient.PublicString())
	assert.NoError(t, err)

	ct1, err := sealer.Seal([]byte("same value"))
	assert.NoError(t, err)
	ct2, err := sealer.Seal([]byte("same value"))
	assert.NoError(t, err)
	assert.NotEqual(t, ct1, ct2)

	// the ephemeral public key is the first KeySize bytes of the box
	raw1, _ := base64.StdEncoding.DecodeString(ct1)
	raw2, _ := base64.StdEncoding.DecodeString(ct2)
	assert.NotEqual(t, raw1[:KeySize], raw2[:KeySize])
}

func TestOpenWithWrongKey(t *testing.T) {
	var recipient, other Keypair
	assert.NoError(t, recipient.Generate())
	assert.NoError(t, other.Generate())

	ct, err := Seal(recipient.PublicString(), []byte("for recipient only"))
	assert.NoError(t, err)

	_, err = other.Open(ct)
	assert.IsError(t, err, ErrDecryption)

	_, err = recipient.Open("not base64!")
	assert.IsError(t, err, ErrDecryption)

	tampered := []byte(ct)
	tampered[len(tampered)-5] ^= 1
	_, err = recipient.Open(string(tampered))
	assert.Error(t, err)
}

func TestParsePublicKey(t *testing.T) {
	var kp Keypair
	assert.NoError(t, kp.Generate())

	t.Run("valid", func(t *testing.T) {
		key, err := ParsePublicKey(kp.PublicString())
		assert.NoError(t, err)
		assert.Equal(t, kp.Public, key)
	})

	invalid := map[string]string{
		"not base64": "%%%not-base64%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("short")),
		"too long":   base64.StdEncoding.EncodeToString(make([]byte, KeySize+1)),
		"empty":      "",
		"hex":        "493ffcfba776a045fba526acb0baff44c9639b98b9f27123cca67c808d4e171d",
	}
	for name, key := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePublicKey(key)
			assert.IsError(t, err, ErrInvalidPublicKey)

			_, err = Seal(key, []byte("value"))
			assert.IsError(t, err, ErrInvalidPublicKey)
		})
	}
}
