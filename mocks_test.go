package auth_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/devshare/auth"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockIdentity implements auth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Verified() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockIdentityProvider implements auth.IdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (auth.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (auth.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(identity auth.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (auth.AuthClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(auth.AuthClaims)
	return claims, args.Error(1)
}

// MockAuthenticator implements auth.Authenticator for testing
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) IdentityFromClaims(ctx context.Context, claims auth.AuthClaims) (auth.Identity, error) {
	args := m.Called(ctx, claims)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// stubConfig satisfies auth.Config with fixed values.
type stubConfig struct{}

func (stubConfig) GetSigningKey() string       { return "test-signing-key" }
func (stubConfig) GetTokenExpiration() int     { return 1 }
func (stubConfig) GetIssuer() string           { return "devshare-test" }
func (stubConfig) GetAudience() []string       { return nil }
func (stubConfig) GetContextKey() string       { return "user" }
func (stubConfig) GetAuthScheme() string       { return "Bearer" }
func (stubConfig) GetTicketTTL() time.Duration { return 15 * time.Minute }

// stubRepositoryManager satisfies auth.RepositoryManager for controller
// paths that never touch persistence.
type stubRepositoryManager struct {
	users auth.Users
}

func (s stubRepositoryManager) Validate() error { return nil }

func (s stubRepositoryManager) MustValidate() {}

func (s stubRepositoryManager) Users() auth.Users { return s.users }

func (s stubRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}
