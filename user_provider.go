package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserStore is the slice of the Users repository the provider needs.
type UserStore interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider resolves identities against the credential store
type UserProvider struct {
	store  UserStore
	logger Logger
}

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = 24 * time.Hour

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Unknown email and wrong password collapse into the same error.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.HasLivePassword() {
		// OAuth only accounts cannot authenticate with a password.
		return nil, ErrMismatchedHashAndPassword
	}

	if user.LoginAttemptAt != nil && time.Since(*user.LoginAttemptAt) > CoolDownPeriod {
		user.LoginAttempts = 0
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %v", err)
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByID resolves a user id (typically a token subject) to the
// current identity record.
func (u *UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrStaleIdentity
		}
		return nil, err
	}

	if user == nil {
		return nil, ErrStaleIdentity
	}

	return NewIdentityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)
