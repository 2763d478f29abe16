package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog/log"
)

const (
	DefaultServiceName = "notification-sync"

	tokenKey  = "token"
	userIDKey = "userId"
)

var ErrNoCredential = fmt.Errorf("credential not stored")

// KeyringProvider reads the session token and user id from the OS keyring.
type KeyringProvider struct {
	mu   sync.Mutex
	ring keyring.Keyring
}

// OpenKeyring opens the keyring for service. fileDir is used by the
// encrypted file backend on hosts without a system keyring.
func OpenKeyring(service, fileDir string) (*KeyringProvider, error) {
	if service == "" {
		service = DefaultServiceName
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(service + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringProvider(ring), nil
}

func NewKeyringProvider(ring keyring.Keyring) *KeyringProvider {
	return &KeyringProvider{ring: ring}
}

// Token returns the stored bearer token, or "" when none is stored.
func (p *KeyringProvider) Token(_ context.Context) (string, error) {
	v, err := p.get(tokenKey)
	if errors.Is(err, ErrNoCredential) {
		return "", nil
	}
	return v, err
}

func (p *KeyringProvider) UserID(_ context.Context) (string, error) {
	return p.get(userIDKey)
}

// Save stores a fresh session, e.g. after login.
func (p *KeyringProvider) Save(token, userID string) error {
	if err := p.set(tokenKey, token); err != nil {
		return err
	}
	return p.set(userIDKey, userID)
}

// ClearToken drops the stored bearer token. The user id is kept so the
// next login can reuse it.
func (p *KeyringProvider) ClearToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ring.Remove(tokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		log.Err(err).Msg("error while clearing session token")
		return
	}
	log.Info().Msg("session token cleared")
}

func (p *KeyringProvider) get(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, err := p.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNoCredential, key)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

func (p *KeyringProvider) set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}
