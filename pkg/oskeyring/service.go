// Package oskeyring keeps GitHub tokens in the operating system's keyring.
package oskeyring

import (
	"errors"
	"fmt"
	"sync"

	keyringlib "github.com/zalando/go-keyring"
)

// ServiceName is the keyring service every token is stored under.
const ServiceName = "ghsecrets"

// DefaultAccount is the account name used for the token of the default GitHub host.
const DefaultAccount = "github.com"

// ErrNotFound is returned by Token when no token is stored for the account.
var ErrNotFound = errors.New("token not found in keyring")

// Store reads and writes GitHub tokens, keyed by account (usually the API host).
type Store interface {
	// Token returns the stored token or ErrNotFound.
	Token(account string) (string, error)
	// SetToken stores token, replacing any previous one.
	SetToken(account, token string) error
	// DeleteToken removes the token. Removing a missing token is not an error.
	DeleteToken(account string) error
}

// OSStore is the Store backed by the zalando/go-keyring library.
type OSStore struct{}

// NewOSStore creates a new OSStore.
func NewOSStore() *OSStore {
	return &OSStore{}
}

func (s *OSStore) Token(account string) (string, error) {
	token, err := keyringlib.Get(ServiceName, account)
	if err != nil {
		if errors.Is(err, keyringlib.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read token from OS keyring: %w", err)
	}
	return token, nil
}

func (s *OSStore) SetToken(account, token string) error {
	if err := keyringlib.Set(ServiceName, account, token); err != nil {
		return fmt.Errorf("failed to store token in OS keyring: %w", err)
	}
	return nil
}

func (s *OSStore) DeleteToken(account string) error {
	err := keyringlib.Delete(ServiceName, account)
	if err != nil && !errors.Is(err, keyringlib.ErrNotFound) {
		return fmt.Errorf("failed to delete token from OS keyring: %w", err)
	}
	return nil
}

var _ Store = (*OSStore)(nil)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

func (s *MemoryStore) Token(account string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[account]
	if !ok {
		return "", ErrNotFound
	}
	return token, nil
}

func (s *MemoryStore) SetToken(account, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[account] = token
	return nil
}

func (s *MemoryStore) DeleteToken(account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, account)
	return nil
}

var _ Store = (*MemoryStore)(nil)
