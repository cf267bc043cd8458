package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

// Keypair is an X25519 keypair in the form GitHub uses for repository keys.
// The CLI never needs one; it exists so sealed values can be opened again,
// which is how the fake GitHub server in testutl checks what it received.
type Keypair struct {
	Public  [KeySize]byte
	Private [KeySize]byte
}

// Generate fills the keypair with a new random key.
func (kp *Keypair) Generate() error {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	kp.Public = *pub
	kp.Private = *priv
	return nil
}

// PublicString returns the public key base64 encoded, as the GitHub API does.
func (kp *Keypair) PublicString() string {
	return base64.StdEncoding.EncodeToString(kp.Public[:])
}

// PrivateString returns the private key base64 encoded.
func (kp *Keypair) PrivateString() string {
	return base64.StdEncoding.EncodeToString(kp.Private[:])
}

// Open decrypts a base64 encoded sealed box addressed to this keypair.
func (kp *Keypair) Open(ciphertext string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	plaintext, ok := box.OpenAnonymous(nil, sealed, &kp.Public, &kp.Private)
	if !ok {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
