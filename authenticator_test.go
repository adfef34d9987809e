package auth_test

import (
	"context"
	"testing"

	"github.com/devshare/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuther_Login(t *testing.T) {
	identity := newTestIdentity()

	provider := &MockIdentityProvider{}
	provider.On("VerifyIdentity", mock.Anything, "user@example.com", "s3cret-passw0rd").
		Return(identity, nil)

	tokenService := &MockTokenService{}
	tokenService.On("Generate", identity).Return("signed.jwt.token", nil)

	auther := auth.NewAuthenticator(provider, stubConfig{}).
		WithTokenService(tokenService)

	token, err := auther.Login(context.Background(), "user@example.com", "s3cret-passw0rd")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", token)

	provider.AssertExpectations(t)
	tokenService.AssertExpectations(t)
}

func TestAuther_LoginMissingCredentials(t *testing.T) {
	auther := auth.NewAuthenticator(&MockIdentityProvider{}, stubConfig{})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"no email", "", "s3cret-passw0rd"},
		{"no password", "user@example.com", ""},
		{"neither", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auther.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, auth.ErrMissingCredentials)
		})
	}
}

func TestAuther_LoginBadCredentials(t *testing.T) {
	provider := &MockIdentityProvider{}
	provider.On("VerifyIdentity", mock.Anything, "user@example.com", "wrong").
		Return(nil, auth.ErrMismatchedHashAndPassword)

	auther := auth.NewAuthenticator(provider, stubConfig{})

	_, err := auther.Login(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuther_LoginUnknownEmailSameError(t *testing.T) {
	// lookup miss and password mismatch must be indistinguishable
	provider := &MockIdentityProvider{}
	provider.On("VerifyIdentity", mock.Anything, "ghost@example.com", "s3cret-passw0rd").
		Return(nil, auth.ErrIdentityNotFound)

	auther := auth.NewAuthenticator(provider, stubConfig{})

	_, err := auther.Login(context.Background(), "ghost@example.com", "s3cret-passw0rd")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuther_LoginRateLimitPassesThrough(t *testing.T) {
	provider := &MockIdentityProvider{}
	provider.On("VerifyIdentity", mock.Anything, "user@example.com", "s3cret-passw0rd").
		Return(nil, auth.ErrTooManyLoginAttempts)

	auther := auth.NewAuthenticator(provider, stubConfig{})

	_, err := auther.Login(context.Background(), "user@example.com", "s3cret-passw0rd")
	assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)
}

func TestAuther_IdentityFromClaims(t *testing.T) {
	identity := newTestIdentity()

	provider := &MockIdentityProvider{}
	provider.On("FindIdentityByID", mock.Anything, "aa11f1d6-349b-4bfc-a3b5-a53442feae45").
		Return(identity, nil)

	auther := auth.NewAuthenticator(provider, stubConfig{})

	tokenService := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)
	token, err := tokenService.Generate(identity)
	require.NoError(t, err)

	claims, err := tokenService.Validate(token)
	require.NoError(t, err)

	resolved, err := auther.IdentityFromClaims(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), resolved.ID())
}

func TestAuther_IdentityFromClaimsStale(t *testing.T) {
	provider := &MockIdentityProvider{}
	provider.On("FindIdentityByID", mock.Anything, mock.Anything).
		Return(nil, auth.ErrStaleIdentity)

	auther := auth.NewAuthenticator(provider, stubConfig{})

	tokenService := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)
	token, err := tokenService.Generate(newTestIdentity())
	require.NoError(t, err)

	claims, err := tokenService.Validate(token)
	require.NoError(t, err)

	_, err = auther.IdentityFromClaims(context.Background(), claims)
	assert.ErrorIs(t, err, auth.ErrStaleIdentity)
}
