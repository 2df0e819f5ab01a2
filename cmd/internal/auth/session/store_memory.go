package session

import (
	"context"
	"errors"
	"sync"
)

// ErrDuplicateToken is returned when a token collides with an existing row.
var ErrDuplicateToken = errors.New("session token already exists")

// MemoryStore is an in-process Store. Apply holds the store lock for the whole
// read-modify-write, which gives the same atomicity as a row lock.
type MemoryStore struct {
	mu      sync.Mutex
	byToken map[string]Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byToken: make(map[string]Session)}
}

func (m *MemoryStore) Create(ctx context.Context, s Session) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byToken[s.Token]; exists {
		return Session{}, ErrDuplicateToken
	}
	m.byToken[s.Token] = s
	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, token string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byToken[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) Apply(ctx context.Context, token string, fn Mutation) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byToken[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	next, changed, err := fn(cur)
	if err != nil {
		return Session{}, err
	}
	if !changed {
		return cur, nil
	}

	// Identity columns are immutable.
	next.ID, next.Token, next.UserID, next.CreatedAt = cur.ID, cur.Token, cur.UserID, cur.CreatedAt
	m.byToken[token] = next
	return next, nil
}
