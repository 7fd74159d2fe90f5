// Package memory provides in-process implementations of the credential and
// token store ports. Nothing survives the process; use them in tests and
// one-shot runs that do not need persistence.
package memory

import (
	"context"
	"sync"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CredentialStore = (*CredentialStore)(nil)
	_ driven.TokenStore      = (*TokenStore)(nil)
)

// CredentialStore keeps credentials in a map keyed by identity.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]model.Credential
	saves int
}

// NewCredentialStore creates an empty CredentialStore.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]model.Credential)}
}

func (s *CredentialStore) Load(_ context.Context, identity string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[identity]
	if !ok {
		return nil, nil
	}
	if cred.ExpiresAt != nil {
		expires := *cred.ExpiresAt
		cred.ExpiresAt = &expires
	}
	return &cred, nil
}

func (s *CredentialStore) Save(_ context.Context, cred model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred.ExpiresAt != nil {
		expires := *cred.ExpiresAt
		cred.ExpiresAt = &expires
	}
	s.creds[cred.Identity] = cred
	s.saves++
	return nil
}

func (s *CredentialStore) Exists(_ context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.creds[identity]
	return ok, nil
}

// Saves returns how many times Save has been called.
func (s *CredentialStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// TokenStore keeps one token per identity.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]model.Token
	saves  int
}

// NewTokenStore creates an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]model.Token)}
}

func (s *TokenStore) Load(_ context.Context, identity string) (*model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[identity]
	if !ok {
		return nil, nil
	}
	return &tok, nil
}

func (s *TokenStore) Save(_ context.Context, token model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Identity] = token
	s.saves++
	return nil
}

func (s *TokenStore) Exists(_ context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[identity]
	return ok, nil
}

// Saves returns how many times Save has been called.
func (s *TokenStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
