package github

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// Keyring coordinates of the stored token.
const (
	KeyringService = "trackmcp"
	KeyringUser    = "github"
)

// ErrNoToken means no token is stored.
var ErrNoToken = errors.New("no github token stored")

// TokenStore keeps a GitHub token in the OS credential store.
type TokenStore struct {
	Service string
}

// NewTokenStore returns a store under KeyringService.
func NewTokenStore() TokenStore {
	return TokenStore{Service: KeyringService}
}

func (s TokenStore) service() string {
	if s.Service == "" {
		return KeyringService
	}
	return s.Service
}

// Save stores token, replacing any previous one.
func (s TokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(s.service(), KeyringUser, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Load returns the stored token or ErrNoToken.
func (s TokenStore) Load() (string, error) {
	token, err := keyring.Get(s.service(), KeyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Delete removes the stored token. Deleting a missing token is not an error.
func (s TokenStore) Delete() error {
	err := keyring.Delete(s.service(), KeyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Resolve picks the first non-empty token from explicit, then the store.
// A missing or unavailable keyring yields "" without error.
func (s TokenStore) Resolve(explicit string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	token, err := s.Load()
	if err != nil {
		return ""
	}
	return token
}

// MaskToken hides all but the last four characters.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
