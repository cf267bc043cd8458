// Package keys renders repository public keys in a form people can compare.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mscno/ghsecrets/pkg/crypto"
	"github.com/tyler-smith/go-bip39"
)

// Fingerprint returns the SHA-256 of the decoded key as colon separated
// groups of four hex characters. Keys that do not decode are hashed as given
// so that a malformed key still gets a stable fingerprint.
func Fingerprint(publicKey string) string {
	h := sum(publicKey)
	hexStr := hex.EncodeToString(h[:])
	groups := make([]string, 0, len(hexStr)/4)
	for i := 0; i < len(hexStr); i += 4 {
		groups = append(groups, hexStr[i:i+4])
	}
	return strings.Join(groups, ":")
}

// FingerprintWords returns a short word phrase (6 words) from the fingerprint using the BIP-39 wordlist
func FingerprintWords(publicKey string) string {
	h := sum(publicKey)
	wordlist := bip39.GetWordList()
	words := make([]string, 6)
	for i := range words {
		// Each word index: use 11 bits (2048 words)
		// 6*11 = 66 bits, SHA-256 has enough bits
		bitpos := i * 11
		idx := 0
		for j := 0; j < 11; j++ {
			bytepos := (bitpos + j) / 8
			bitoff := 7 - ((bitpos + j) % 8)
			if (h[bytepos] & (1 << bitoff)) != 0 {
				idx |= 1 << (10 - j)
			}
		}
		words[i] = wordlist[idx]
	}
	return strings.Join(words, "-")
}

func sum(publicKey string) [sha256.Size]byte {
	if key, err := crypto.ParsePublicKey(publicKey); err == nil {
		return sha256.Sum256(key[:])
	}
	return sha256.Sum256([]byte(publicKey))
}
