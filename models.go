package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record. Reset and verification tickets live inline:
// only the sha256 hash of a ticket token is stored, alongside its expiry.
// Consuming a ticket clears both fields in the same update as the state
// change, so a ticket is single use.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role         UserRole  `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName    string    `bun:"first_name" json:"first_name,omitempty"`
	LastName     string    `bun:"last_name" json:"last_name,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string    `bun:"password_hash" json:"-"`

	EmailVerified bool `bun:"is_email_verified" json:"is_email_verified"`

	// OAuth only accounts carry a provider pair and no password hash.
	Provider       string `bun:"provider" json:"provider,omitempty"`
	ProviderUserID string `bun:"provider_user_id" json:"-"`

	ResetTokenHash       string     `bun:"reset_token_hash" json:"-"`
	ResetTokenExpiresAt  *time.Time `bun:"reset_token_expires_at,nullzero" json:"-"`
	VerifyTokenHash      string     `bun:"verify_token_hash" json:"-"`
	VerifyTokenExpiresAt *time.Time `bun:"verify_token_expires_at,nullzero" json:"-"`

	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// HasLivePassword reports whether the account can authenticate with a
// password at all. OAuth only accounts cannot.
func (u *User) HasLivePassword() bool {
	return u != nil && u.PasswordHash != ""
}

// PublicUser is the non sensitive projection returned by the API.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Role          UserRole  `json:"role"`
	EmailVerified bool      `json:"is_email_verified"`
	Provider      string    `json:"provider,omitempty"`
}

// Public returns the projection of the user that is safe to serialize.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		Provider:      u.Provider,
	}
}
