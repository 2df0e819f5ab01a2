package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned by stores when no row matches.
var ErrUserNotFound = errors.New("user not found")

// User is a registered principal.
//
// Secret is the derived password secret. It is serialized as "password" and the registry
// never redacts it; the outer API decides what leaves the process.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Secret    string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserInput describes a registration request. All fields are required.
type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPatch carries the fields to change. Nil fields are left untouched.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserChanges is the column set of a store update. Secret is already derived.
type UserChanges struct {
	Username *string
	Email    *string
	Secret   *string
}

// Store is the user persistence boundary.
//
// Username and email comparisons are case-insensitive. Implementations must enforce
// case-insensitive uniqueness themselves and report violations as ConflictError.
type Store interface {
	// UsernameTaken reports whether another user (id != exclude) holds username.
	UsernameTaken(ctx context.Context, username string, exclude uuid.UUID) (bool, error)
	// EmailTaken reports whether another user (id != exclude) holds email.
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)

	// Insert persists u and returns it with storage-assigned timestamps.
	Insert(ctx context.Context, u User) (User, error)
	// Update writes the non-nil fields of ch to the row with id in a single statement and
	// bumps updated_at. Columns ch leaves nil keep their stored value.
	Update(ctx context.Context, id uuid.UUID, ch UserChanges) (User, error)

	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
}

// SecretHasher derives and verifies password secrets.
type SecretHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, secret string) (bool, error)
}
