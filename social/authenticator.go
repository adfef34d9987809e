package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/devshare/auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// SocialAuthenticator orchestrates social login flows: it hands the browser
// to the provider, completes the code exchange, and maps the returned
// profile onto a local account.
type SocialAuthenticator struct {
	providers    map[string]SocialProvider
	stateManager StateManager
	repo         auth.RepositoryManager
	tokenService auth.TokenService
	logger       auth.Logger
	config       SocialAuthConfig
}

// SocialAuthConfig configures the social authenticator.
type SocialAuthConfig struct {
	DefaultRedirectURL   string
	StateEncryptionKey   []byte
	StateHMACKey         []byte
	StateTTL             time.Duration
	RequireEmailVerified bool
}

// SocialAuthOption configures the social authenticator.
type SocialAuthOption func(*SocialAuthenticator)

// NewSocialAuthenticator creates a new social authenticator.
func NewSocialAuthenticator(
	repo auth.RepositoryManager,
	tokenService auth.TokenService,
	config SocialAuthConfig,
	opts ...SocialAuthOption,
) *SocialAuthenticator {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	sa := &SocialAuthenticator{
		providers:    make(map[string]SocialProvider),
		repo:         repo,
		tokenService: tokenService,
		config:       cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	if sa.stateManager == nil {
		sa.stateManager = NewEncryptedStateManager(
			cfg.StateEncryptionKey,
			cfg.StateHMACKey,
			cfg.StateTTL,
		)
	}

	return sa
}

// WithProvider registers a social provider.
func WithProvider(provider SocialProvider) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if provider == nil {
			return
		}
		sa.providers[provider.Name()] = provider
	}
}

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.stateManager = sm
	}
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.logger = logger
	}
}

// ListProviders returns the names of the configured providers.
func (sa *SocialAuthenticator) ListProviders() []string {
	names := make([]string, 0, len(sa.providers))
	for name := range sa.providers {
		names = append(names, name)
	}
	return names
}

// AuthRedirect is the outcome of BeginAuth.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult is the outcome of a completed social login.
type AuthResult struct {
	User        auth.Identity
	Token       string
	IsNewUser   bool
	Provider    string
	Profile     *SocialProfile
	RedirectURL string
}

// BeginAuth starts the OAuth flow for a provider.
func (sa *SocialAuthenticator) BeginAuth(ctx context.Context, providerName, redirectURL string) (*AuthRedirect, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	redirectURL = sa.sanitizeRedirect(redirectURL)

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	now := time.Now()
	state := &OAuthState{
		Nonce:        generateNonce(),
		Provider:     providerName,
		CodeVerifier: codeVerifier,
		RedirectURL:  redirectURL,
		IssuedAt:     now.Unix(),
		ExpiresAt:    now.Add(sa.config.StateTTL).Unix(),
	}

	stateToken, err := sa.stateManager.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	authURL := provider.AuthCodeURL(stateToken, WithPKCE(computeCodeChallenge(codeVerifier), "S256"))

	return &AuthRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: providerName,
	}, nil
}

// sanitizeRedirect keeps the post-login redirect on our own frontend. The
// callback appends the issued JWT to this URL, so honoring an arbitrary
// caller supplied target would hand the token to whoever controls it. A
// relative path is allowed; an absolute URL must share the configured
// redirect's scheme and host. Everything else falls back to the default.
func (sa *SocialAuthenticator) sanitizeRedirect(redirectURL string) string {
	if redirectURL == "" || redirectURL == sa.config.DefaultRedirectURL {
		return sa.config.DefaultRedirectURL
	}

	target, err := url.Parse(redirectURL)
	if err != nil || strings.Contains(redirectURL, "\\") {
		return sa.config.DefaultRedirectURL
	}

	if target.Scheme == "" && target.Host == "" {
		if strings.HasPrefix(target.Path, "/") {
			return redirectURL
		}
		return sa.config.DefaultRedirectURL
	}

	base, err := url.Parse(sa.config.DefaultRedirectURL)
	if err != nil || base.Host == "" {
		return sa.config.DefaultRedirectURL
	}

	if target.Scheme == base.Scheme && target.Host == base.Host {
		return redirectURL
	}

	return sa.config.DefaultRedirectURL
}

// CompleteAuth finishes the OAuth flow after the provider callback. It
// links the profile to an existing account when one matches the provider
// identity or the verified email, and registers a new account otherwise.
func (sa *SocialAuthenticator) CompleteAuth(ctx context.Context, providerName, code, stateToken string) (*AuthResult, error) {
	if code == "" {
		return nil, ErrMissingAuthCode
	}

	state, err := sa.stateManager.Decode(stateToken)
	if err != nil {
		if goerrors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.Provider != providerName {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	token, err := provider.Exchange(ctx, code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, ErrTokenExchangeFailed.Message).
			WithTextCode(TextCodeTokenExchangeFail).
			WithCode(goerrors.CodeUnauthorized)
	}

	profile, err := provider.UserInfo(ctx, token)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, ErrUserInfoFailed.Message).
			WithTextCode(TextCodeUserInfoFail).
			WithCode(goerrors.CodeUnauthorized)
	}

	if sa.config.RequireEmailVerified && !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	user, isNew, err := sa.resolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	identity := auth.NewIdentityFromUser(user)
	if identity == nil {
		return nil, auth.ErrIdentityNotFound
	}

	jwtToken, err := sa.tokenService.Generate(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{
		User:        identity,
		Token:       jwtToken,
		IsNewUser:   isNew,
		Provider:    providerName,
		Profile:     profile,
		RedirectURL: state.RedirectURL,
	}, nil
}

// resolveUser maps a provider profile to a local account inside one
// transaction: match by provider identity first, then by email, then
// register a fresh pre-verified account.
func (sa *SocialAuthenticator) resolveUser(ctx context.Context, profile *SocialProfile) (*auth.User, bool, error) {
	var user *auth.User
	var isNew bool

	err := sa.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := sa.repo.Users().GetByProviderIDTx(ctx, tx, profile.Provider, profile.ProviderUserID)
		if err == nil {
			user = existing
			return nil
		}
		if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up social account")
		}

		byEmail, err := sa.repo.Users().GetByEmailTx(ctx, tx, profile.Email)
		if err == nil {
			byEmail.Provider = profile.Provider
			byEmail.ProviderUserID = profile.ProviderUserID
			byEmail.EmailVerified = true

			updated, err := sa.repo.Users().UpdateTx(ctx, tx, byEmail,
				repository.UpdateByID(byEmail.ID.String()),
			)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to link social account")
			}

			user = updated
			return nil
		}
		if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account by email")
		}

		record := &auth.User{
			FirstName:      profile.FirstName,
			LastName:       profile.LastName,
			Email:          profile.Email,
			Role:           auth.RoleStudent,
			Provider:       profile.Provider,
			ProviderUserID: profile.ProviderUserID,
			EmailVerified:  true,
		}
		if record.FirstName == "" && profile.Name != "" {
			record.FirstName = profile.Name
		}

		created, err := sa.repo.Users().RegisterTx(ctx, tx, record)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account from social profile")
		}

		user = created
		isNew = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return user, isNew, nil
}
