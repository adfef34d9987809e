package auth_test

import (
	"testing"
	"time"

	"github.com/devshare/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdentity() *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return("aa11f1d6-349b-4bfc-a3b5-a53442feae45")
	identity.On("Email").Return("user@example.com")
	identity.On("Role").Return("student")
	identity.On("Verified").Return(true)
	return identity
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	service := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)

	token, err := service.Generate(newTestIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "aa11f1d6-349b-4bfc-a3b5-a53442feae45", claims.UserID())
	assert.Equal(t, "aa11f1d6-349b-4bfc-a3b5-a53442feae45", claims.Subject())
	assert.Equal(t, "student", claims.Role())
	assert.True(t, claims.HasRole("student"))
	assert.True(t, claims.IsAtLeast("student"))
	assert.False(t, claims.IsAtLeast("admin"))
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), time.Minute)
}

func TestTokenService_GenerateNilIdentity(t *testing.T) {
	service := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)

	_, err := service.Generate(nil)
	assert.Error(t, err)
}

func TestTokenService_ValidateExpired(t *testing.T) {
	now := time.Now()
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "aa11f1d6-349b-4bfc-a3b5-a53442feae45",
			Issuer:    "devshare-test",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UID:      "aa11f1d6-349b-4bfc-a3b5-a53442feae45",
		UserRole: "student",
	}

	service := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)

	token, err := service.(*auth.TokenServiceImpl).SignClaims(claims)
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_ValidateTampered(t *testing.T) {
	service := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)

	token, err := service.Generate(newTestIdentity())
	require.NoError(t, err)

	_, err = service.Validate(token + "junk")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

// Rejected tokens must not reveal why they were rejected. An expired token
// and a tampered one get byte-identical errors.
func TestTokenService_RejectionIsUndifferentiated(t *testing.T) {
	now := time.Now()
	expiredClaims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "aa11f1d6-349b-4bfc-a3b5-a53442feae45",
			Issuer:    "devshare-test",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UID:      "aa11f1d6-349b-4bfc-a3b5-a53442feae45",
		UserRole: "student",
	}

	service := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)

	expired, err := service.(*auth.TokenServiceImpl).SignClaims(expiredClaims)
	require.NoError(t, err)

	valid, err := service.Generate(newTestIdentity())
	require.NoError(t, err)

	_, expiredErr := service.Validate(expired)
	_, tamperedErr := service.Validate(valid + "junk")
	require.Error(t, expiredErr)
	require.Error(t, tamperedErr)

	assert.Equal(t, expiredErr.Error(), tamperedErr.Error())
	assert.ErrorIs(t, expiredErr, auth.ErrInvalidToken)
	assert.ErrorIs(t, tamperedErr, auth.ErrInvalidToken)
}

func TestTokenService_ValidateWrongKey(t *testing.T) {
	issuer := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)
	verifier := auth.NewTokenService([]byte("another-signing-key"), 1, "devshare-test", nil, nil)

	token, err := issuer.Generate(newTestIdentity())
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_ValidateGarbage(t *testing.T) {
	service := auth.NewTokenService([]byte("test-signing-key"), 1, "devshare-test", nil, nil)

	_, err := service.Validate("not-a-jwt")
	assert.Error(t, err)
}
