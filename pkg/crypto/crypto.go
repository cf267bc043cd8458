// Package crypto seals secret values for GitHub Actions.
//
// GitHub stores Actions secrets encrypted with a libsodium sealed box
// (crypto_box_seal) under the repository's X25519 public key. A sealed box
// generates an ephemeral keypair for every message, derives the nonce from
// the ephemeral and recipient public keys and prepends the ephemeral public
// key to the XSalsa20-Poly1305 ciphertext. The sender stays anonymous; only
// the holder of the recipient's private key can open the box.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"
)

// KeySize is the length in bytes of an X25519 public or private key.
const KeySize = 32

// Overhead is the number of bytes a sealed box adds to its plaintext.
const Overhead = box.AnonymousOverhead

var (
	// ErrInvalidPublicKey is returned when a public key is not valid base64
	// or does not decode to KeySize bytes.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrDecryption is returned when a sealed box cannot be opened.
	ErrDecryption = errors.New("couldn't decrypt message")
)

// ParsePublicKey decodes a base64 (standard encoding) public key as returned by
// the GitHub API.
func ParsePublicKey(s string) ([KeySize]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return [KeySize]byte{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != KeySize {
		return [KeySize]byte{}, fmt.Errorf("%w: decoded length is %d bytes, want %d", ErrInvalidPublicKey, len(raw), KeySize)
	}
	var key [KeySize]byte
	copy(key[:], raw)
	return key, nil
}

// Sealer seals values for a single recipient. It is safe for concurrent use.
type Sealer struct {
	recipient [KeySize]byte
	rand      io.Reader
}

// NewSealer parses publicKey once so that many values can be sealed for it.
func NewSealer(publicKey string) (*Sealer, error) {
	key, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return &Sealer{recipient: key, rand: rand.Reader}, nil
}

// Seal encrypts plaintext in a sealed box and returns it base64 encoded.
// Every call uses a fresh ephemeral keypair, so sealing the same plaintext
// twice yields different ciphertexts.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	sealed, err := box.SealAnonymous(nil, plaintext, &s.recipient, s.rand)
	if err != nil {
		return "", fmt.Errorf("seal anonymous: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Seal encrypts plaintext for publicKey. See Sealer.Seal.
func Seal(publicKey string, plaintext []byte) (string, error) {
	s, err := NewSealer(publicKey)
	if err != nil {
		return "", err
	}
	return s.Seal(plaintext)
}
