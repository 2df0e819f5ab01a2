package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry owns user records: uniqueness-checked create, lookup, partial update and
// credential checks. It never stores a plaintext password.
type Registry struct {
	store  Store
	hasher SecretHasher
	log    *slog.Logger

	dummyOnce   sync.Once
	dummySecret string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger (default slog.Default()).
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry wires a Registry over store and hasher.
func NewRegistry(store Store, hasher SecretHasher, opts ...RegistryOption) (*Registry, error) {
	if store == nil {
		return nil, errors.New("identity: nil store")
	}
	if hasher == nil {
		return nil, errors.New("identity: nil hasher")
	}
	r := &Registry{store: store, hasher: hasher, log: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Create registers a new user.
//
// Uniqueness is checked username first, then email; the first violation wins.
// The check is a fast path only: a concurrent create that slips between check and
// write is rejected by the store and surfaces as the same validation error.
func (r *Registry) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.Create"

	if err := validateUsername(op, in.Username); err != nil {
		return User{}, err
	}
	if err := validateEmail(op, in.Email); err != nil {
		return User{}, err
	}
	if err := validatePassword(op, in.Password); err != nil {
		return User{}, err
	}

	if err := r.ensureUnique(ctx, op, &in.Username, &in.Email, uuid.Nil); err != nil {
		return User{}, err
	}

	secret, err := r.hasher.Hash(ctx, in.Password)
	if err != nil {
		return User{}, err
	}

	u, err := r.store.Insert(ctx, User{
		ID:       uuid.New(),
		Username: in.Username,
		Email:    in.Email,
		Secret:   secret,
	})
	if err != nil {
		if verr, ok := conflictToValidation(op, err); ok {
			r.log.Info("identity.create.conflict_backstop", "err", err)
			return User{}, verr
		}
		return User{}, err
	}
	return u, nil
}

// FindByUsername looks a user up case-insensitively.
func (r *Registry) FindByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.FindByUsername"

	u, err := r.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, userNotFound(op)
	}
	return u, err
}

// FindByID resolves a user by id.
func (r *Registry) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	const op = "identity.FindByID"

	u, err := r.store.FindByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, userNotFound(op)
	}
	return u, err
}

// Update applies patch to the user identified by username.
// Supplied fields are re-validated (uniqueness excludes the target itself);
// a supplied password is re-derived. updated_at is bumped by the store.
func (r *Registry) Update(ctx context.Context, username string, patch UserPatch) (User, error) {
	const op = "identity.Update"

	current, err := r.FindByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}

	if patch.Username != nil {
		if err := validateUsername(op, *patch.Username); err != nil {
			return User{}, err
		}
	}
	if patch.Email != nil {
		if err := validateEmail(op, *patch.Email); err != nil {
			return User{}, err
		}
	}
	if patch.Password != nil {
		if err := validatePassword(op, *patch.Password); err != nil {
			return User{}, err
		}
	}

	if err := r.ensureUnique(ctx, op, patch.Username, patch.Email, current.ID); err != nil {
		return User{}, err
	}

	ch := UserChanges{Username: patch.Username, Email: patch.Email}
	if patch.Password != nil {
		secret, err := r.hasher.Hash(ctx, *patch.Password)
		if err != nil {
			return User{}, err
		}
		ch.Secret = &secret
	}

	// Only supplied columns are written, so concurrent patches of different fields compose.
	u, err := r.store.Update(ctx, current.ID, ch)
	if err != nil {
		if verr, ok := conflictToValidation(op, err); ok {
			r.log.Info("identity.update.conflict_backstop", "err", err)
			return User{}, verr
		}
		if errors.Is(err, ErrUserNotFound) {
			return User{}, userNotFound(op)
		}
		return User{}, err
	}
	return u, nil
}

// Authenticate checks an email/password pair.
// Unknown email and wrong password fail identically; when the email is unknown a
// verification still runs against a throwaway secret so timing does not leak existence.
func (r *Registry) Authenticate(ctx context.Context, email, password string) (User, error) {
	const op = "identity.Authenticate"

	u, err := r.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		r.burnVerify(ctx, password)
		return User{}, badCredentials(op)
	}
	if err != nil {
		return User{}, err
	}

	ok, err := r.hasher.Verify(ctx, password, u.Secret)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, badCredentials(op)
	}
	return u, nil
}

func (r *Registry) ensureUnique(ctx context.Context, op string, username, email *string, exclude uuid.UUID) error {
	if username != nil {
		taken, err := r.store.UsernameTaken(ctx, *username, exclude)
		if err != nil {
			return err
		}
		if taken {
			return usernameTaken(op)
		}
	}
	if email != nil {
		taken, err := r.store.EmailTaken(ctx, *email, exclude)
		if err != nil {
			return err
		}
		if taken {
			return emailTaken(op)
		}
	}
	return nil
}

func (r *Registry) burnVerify(ctx context.Context, password string) {
	r.dummyOnce.Do(func() {
		s, err := r.hasher.Hash(ctx, "dummy-password-for-timing-only")
		if err != nil {
			r.log.Warn("identity.dummy_secret.fail", "err", err)
			return
		}
		r.dummySecret = s
	})
	if r.dummySecret != "" {
		_, _ = r.hasher.Verify(ctx, password, r.dummySecret)
	}
}
