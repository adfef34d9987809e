package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// EnvConfig is the concrete configuration loaded from the environment. It
// satisfies the Config interface consumed by the authenticator and guard.
type EnvConfig struct {
	Address     string `env:"DEVSHARE_ADDR" envDefault:":9009"`
	DatabaseDSN string `env:"DEVSHARE_DB_DSN" envDefault:"file:devshare.db?cache=shared&mode=rwc"`

	SigningKey      string   `env:"DEVSHARE_SIGNING_KEY,required"`
	TokenExpiration int      `env:"DEVSHARE_TOKEN_EXPIRATION_HOURS" envDefault:"24"`
	Issuer          string   `env:"DEVSHARE_TOKEN_ISSUER" envDefault:"devshare"`
	Audience        []string `env:"DEVSHARE_TOKEN_AUDIENCE" envSeparator:","`

	ContextKey string `env:"DEVSHARE_CONTEXT_KEY" envDefault:"user"`
	AuthScheme string `env:"DEVSHARE_AUTH_SCHEME" envDefault:"Bearer"`

	TicketTTL time.Duration `env:"DEVSHARE_TICKET_TTL" envDefault:"15m"`

	// FrontendURL is where the OAuth callback redirects with the issued token.
	FrontendURL string `env:"DEVSHARE_FRONTEND_URL" envDefault:"http://localhost:3000"`

	GoogleClientID     string `env:"DEVSHARE_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"DEVSHARE_GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"DEVSHARE_GOOGLE_CALLBACK_URL"`

	StateSigningKey string `env:"DEVSHARE_STATE_SIGNING_KEY"`
}

// LoadConfig builds an EnvConfig from environment variables.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse environment configuration")
	}
	return cfg, nil
}

var _ Config = (*EnvConfig)(nil)

func (c *EnvConfig) GetSigningKey() string       { return c.SigningKey }
func (c *EnvConfig) GetTokenExpiration() int     { return c.TokenExpiration }
func (c *EnvConfig) GetIssuer() string           { return c.Issuer }
func (c *EnvConfig) GetAudience() []string       { return c.Audience }
func (c *EnvConfig) GetContextKey() string       { return c.ContextKey }
func (c *EnvConfig) GetAuthScheme() string       { return c.AuthScheme }
func (c *EnvConfig) GetTicketTTL() time.Duration { return c.TicketTTL }
