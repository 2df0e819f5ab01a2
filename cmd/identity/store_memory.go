package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used when no database is configured and in tests.
// It enforces case-insensitive uniqueness at write time, like the SQL unique indexes do.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
	now        func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[uuid.UUID]User),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

// SetClock overrides the timestamp source (tests).
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

func (s *MemoryStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *MemoryStore) UsernameTaken(ctx context.Context, username string, exclude uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[NormalizeUsername(username)]
	return ok && id != exclude, nil
}

func (s *MemoryStore) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	return ok && id != exclude, nil
}

func (s *MemoryStore) Insert(ctx context.Context, u User) (User, error) {
	const op = "identity.MemoryStore.Insert"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[NormalizeUsername(u.Username)]; ok {
		return User{}, ConflictError{Op: op, Field: FieldUsername}
	}
	if _, ok := s.byEmail[NormalizeEmail(u.Email)]; ok {
		return User{}, ConflictError{Op: op, Field: FieldEmail}
	}

	now := s.stamp()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.byID[u.ID] = u
	s.byUsername[NormalizeUsername(u.Username)] = u.ID
	s.byEmail[NormalizeEmail(u.Email)] = u.ID
	return u, nil
}

func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, ch UserChanges) (User, error) {
	const op = "identity.MemoryStore.Update"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}

	u := prev
	if ch.Username != nil {
		u.Username = *ch.Username
	}
	if ch.Email != nil {
		u.Email = *ch.Email
	}
	if ch.Secret != nil {
		u.Secret = *ch.Secret
	}

	newUser, oldUser := NormalizeUsername(u.Username), NormalizeUsername(prev.Username)
	newEmail, oldEmail := NormalizeEmail(u.Email), NormalizeEmail(prev.Email)

	if owner, ok := s.byUsername[newUser]; ok && owner != id {
		return User{}, ConflictError{Op: op, Field: FieldUsername}
	}
	if owner, ok := s.byEmail[newEmail]; ok && owner != id {
		return User{}, ConflictError{Op: op, Field: FieldEmail}
	}

	// updated_at strictly increases on every write.
	now := s.stamp()
	if !now.After(prev.UpdatedAt) {
		now = prev.UpdatedAt.Add(time.Microsecond)
	}
	u.UpdatedAt = now

	delete(s.byUsername, oldUser)
	delete(s.byEmail, oldEmail)
	s.byUsername[newUser] = u.ID
	s.byEmail[newEmail] = u.ID
	s.byID[u.ID] = u
	return u, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[NormalizeUsername(username)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
