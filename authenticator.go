package auth

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
)

type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service, mostly useful in tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the email and password against the credential store and
// issues a bearer token. Lookup misses and password mismatches surface as
// the same ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}

	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)

		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryRateLimit {
			return "", err
		}

		return "", ErrInvalidCredentials
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation failed: %v", err)
		return "", err
	}

	return token, nil
}

// IdentityFromClaims resolves validated token claims to the current
// identity record. Identities deleted after token issuance surface as
// ErrStaleIdentity.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error) {
	identity, err := s.provider.FindIdentityByID(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("IdentityFromClaims find identity by id: %v", err)
		return nil, err
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)
