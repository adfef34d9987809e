package auth

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCredentials = "auth_missing_credentials"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeDuplicateIdentity  = "auth_duplicate_identity"
	TextCodeIdentityNotFound   = "auth_identity_not_found"
	TextCodeTicketInvalid      = "auth_ticket_invalid_or_expired"
	TextCodeInvalidToken       = "auth_token_invalid"
	TextCodeUnauthenticated    = "auth_unauthenticated"
	TextCodeStaleIdentity      = "auth_stale_identity"
	TextCodeForbidden          = "auth_forbidden"
	TextCodeNotificationFail   = "auth_notification_failed"
)

// ErrMissingCredentials is returned when a login request omits the email or password.
var ErrMissingCredentials = errors.New("please provide email and password", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCredentials).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is the single error for unknown email or wrong
// password. Keeping both failure modes behind one message prevents account
// enumeration.
var ErrInvalidCredentials = errors.New("incorrect email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateIdentity is returned when registering an email that already exists.
var ErrDuplicateIdentity = errors.New("an account with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidOrExpiredTicket covers reset and verification tickets that do
// not match a stored hash or whose expiry has elapsed. The two cases are
// deliberately undifferentiated.
var ErrInvalidOrExpiredTicket = errors.New("token is invalid or has expired", errors.CategoryBadInput).
	WithTextCode(TextCodeTicketInvalid).
	WithCode(errors.CodeBadRequest)

// ErrInvalidToken covers every bearer token that fails validation. An
// expired token and a tampered one produce the same error on purpose, so
// the response leaks nothing about why the token was rejected.
var ErrInvalidToken = errors.New("authentication token is invalid or expired", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is returned when a protected route receives no bearer token.
var ErrUnauthenticated = errors.New("you are not logged in", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrStaleIdentity is returned when a valid token references an identity
// that no longer exists.
var ErrStaleIdentity = errors.New("the account for this token no longer exists", errors.CategoryAuth).
	WithTextCode(TextCodeStaleIdentity).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when the resolved identity's role is not in the
// operation's allow list.
var ErrForbidden = errors.New("you do not have permission to perform this action", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrNotificationFailed wraps upstream email dispatch failures. It is
// logged, never surfaced to the end user.
var ErrNotificationFailed = errors.New("failed to dispatch notification", errors.CategoryInternal).
	WithTextCode(TextCodeNotificationFail).
	WithCode(errors.CodeInternal)

// ErrMismatchedHashAndPassword is the low level bcrypt mismatch error.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned while an account is cooling down.
var ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later", errors.CategoryRateLimit).
	WithTextCode("auth_too_many_attempts").
	WithCode(http.StatusTooManyRequests)

// IsInvalidTokenError will check for rejected bearer tokens
func IsInvalidTokenError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeInvalidToken {
		return true
	}

	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
