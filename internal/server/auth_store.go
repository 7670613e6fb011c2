package server

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
)

// AuthUser holds one registered account.
type AuthUser struct {
	Account      string
	DisplayName  string
	PasswordHash string
}

// AuthStore is a minimal in-memory credential table.
// Hashing rule: passwordHash = sha256(lower(account) + ":" + password).
// Accounts are seeded at startup or created through /api/signup; persistent
// credential storage is deliberately out of scope here.
type AuthStore struct {
	mu       sync.RWMutex
	accounts map[string]AuthUser // lower(account) -> user
}

func NewAuthStore() *AuthStore {
	return &AuthStore{
		accounts: map[string]AuthUser{},
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func normalizeAccount(account string) string {
	return strings.TrimSpace(strings.ToLower(account))
}

func HashAccountPassword(account, password string) string {
	return sha256Hex(normalizeAccount(account) + ":" + password)
}

// Register adds a new account. Returns false if the account already exists.
func (s *AuthStore) Register(account, password string) (AuthUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeAccount(account)
	if key == "" {
		return AuthUser{}, false
	}
	if _, exists := s.accounts[key]; exists {
		return AuthUser{}, false
	}
	u := AuthUser{
		Account:      account,
		DisplayName:  account,
		PasswordHash: HashAccountPassword(account, password),
	}
	s.accounts[key] = u
	return u, true
}

// Verify checks account credentials.
func (s *AuthStore) Verify(account, password string) (AuthUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.accounts[normalizeAccount(account)]
	if !ok {
		return AuthUser{}, false
	}
	if u.PasswordHash != HashAccountPassword(account, password) {
		return AuthUser{}, false
	}
	return u, true
}
