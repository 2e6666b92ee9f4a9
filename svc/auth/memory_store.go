package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Storage for tests and local tooling.
// Records are copied on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]User
	tokens map[string]RefreshToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]User),
		tokens: make(map[string]RefreshToken),
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email && existing.Provider == u.Provider {
			return ErrUserExists
		}
	}
	u.ID = uuid.NewString()
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *User
	for _, u := range m.users {
		if u.Email != email {
			continue
		}
		if u.Provider == ProviderLocal {
			return &u, nil
		}
		found = &u
	}
	if found == nil {
		return nil, ErrUserNotFound
	}
	return found, nil
}

func (m *MemoryStore) FindGoogleUser(_ context.Context, email, googleID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if (u.Email == email && u.Provider == ProviderGoogle) || (googleID != "" && u.GoogleID == googleID) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStore) GetUserByVerificationToken(_ context.Context, tokenHash string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if tokenHash != "" && u.VerificationTokenHash == tokenHash {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStore) UpdateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Email == u.Email && existing.Provider == u.Provider {
			return ErrUserExists
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) CreateRefreshToken(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[t.Token]; ok {
		return ErrTokenExists
	}
	m.tokens[t.Token] = *t
	return nil
}

func (m *MemoryStore) GetRefreshToken(_ context.Context, tokenHash string) (*RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &t, nil
}

func (m *MemoryStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokens[tokenHash]; ok {
		t.Revoked = true
		m.tokens[tokenHash] = t
	}
	return nil
}

func (m *MemoryStore) RevokeAllUserRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
			m.tokens[k] = t
		}
	}
	return nil
}

func (m *MemoryStore) ConsumeRefreshToken(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[tokenHash]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	m.tokens[tokenHash] = t
	return true, nil
}
