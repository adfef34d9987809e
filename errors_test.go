package auth_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/devshare/auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsInvalidTokenError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured invalid token error",
			err:      auth.ErrInvalidToken,
			expected: true,
		},
		{
			name:     "legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "jwtware style message",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "wrapped malformed message",
			err:      fmt.Errorf("validate: %w", errors.New("token is malformed")),
			expected: true,
		},
		{
			name:     "different structured error",
			err:      auth.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsInvalidTokenError(tt.err))
		})
	}
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrInvalidCredentials", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrInvalidCredentials.Category)
		assert.Equal(t, auth.TextCodeInvalidCredentials, auth.ErrInvalidCredentials.TextCode)
		assert.Equal(t, "incorrect email or password", auth.ErrInvalidCredentials.Message)
	})

	t.Run("ErrDuplicateIdentity", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, auth.ErrDuplicateIdentity.Category)
		assert.Equal(t, auth.TextCodeDuplicateIdentity, auth.ErrDuplicateIdentity.TextCode)
	})

	t.Run("ErrIdentityNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, auth.ErrIdentityNotFound.Category)
		assert.Equal(t, "identity not found", auth.ErrIdentityNotFound.Message)
	})

	t.Run("ErrInvalidOrExpiredTicket", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryBadInput, auth.ErrInvalidOrExpiredTicket.Category)
		assert.Equal(t, auth.TextCodeTicketInvalid, auth.ErrInvalidOrExpiredTicket.TextCode)
		assert.Equal(t, "token is invalid or has expired", auth.ErrInvalidOrExpiredTicket.Message)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, auth.TextCodeInvalidCredentials, auth.ErrMismatchedHashAndPassword.TextCode)
	})

	t.Run("ErrInvalidToken", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrInvalidToken.Category)
		assert.Equal(t, auth.TextCodeInvalidToken, auth.ErrInvalidToken.TextCode)
		assert.Equal(t, "authentication token is invalid or expired", auth.ErrInvalidToken.Message)
	})

	t.Run("ErrTooManyLoginAttempts", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryRateLimit, auth.ErrTooManyLoginAttempts.Category)
	})

	t.Run("ErrForbidden", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuthz, auth.ErrForbidden.Category)
		assert.Equal(t, auth.TextCodeForbidden, auth.ErrForbidden.TextCode)
	})
}
