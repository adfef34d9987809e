package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StoreResetTicketSQL overwrites any previous ticket, keeping at most one
// live reset ticket per identity.
var StoreResetTicketSQL = `UPDATE "users" AS "usr"
SET
	"reset_token_hash" = ?,
	"reset_token_expires_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var StoreVerifyTicketSQL = `UPDATE "users" AS "usr"
SET
	"verify_token_hash" = ?,
	"verify_token_expires_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// ConsumeResetTicketSQL pairs the lookup by ticket hash with the expiry
// check and clears the ticket in the same statement as the password change,
// so a concurrent second attempt simply matches zero rows.
var ConsumeResetTicketSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_token_hash" = '',
	"reset_token_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."reset_token_hash" = ?
AND "usr"."reset_token_expires_at" > ?
RETURNING *;`

var ConsumeVerifyTicketSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"verify_token_hash" = '',
	"verify_token_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."verify_token_hash" = ?
AND "usr"."verify_token_expires_at" > ?
RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByProviderID(ctx context.Context, provider, providerUserID string) (*User, error)
	GetByProviderIDTx(ctx context.Context, tx bun.IDB, provider, providerUserID string) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	StoreResetTicketTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, expiresAt time.Time) error
	StoreVerifyTicketTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, expiresAt time.Time) error
	ConsumeResetTicketTx(ctx context.Context, tx bun.IDB, hash, passwordHash string, now time.Time) (*User, error)
	ConsumeVerifyTicketTx(ctx context.Context, tx bun.IDB, hash string, now time.Time) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound(map[string]any{
				"email": email,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByProviderID(ctx context.Context, provider, providerUserID string) (*User, error) {
	return a.GetByProviderIDTx(ctx, a.db, provider, providerUserID)
}

func (a *users) GetByProviderIDTx(ctx context.Context, tx bun.IDB, provider, providerUserID string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.provider = ?", provider).
		Where("?TableAlias.provider_user_id = ?", providerUserID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound(map[string]any{
				"provider":         provider,
				"provider_user_id": providerUserID,
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: Updating via the ORM wont reset login_attempt_at and
	// login_attempts in a single statement.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.Update(ctx, record, criteria...)

	return err
}

func (a *users) StoreResetTicketTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, expiresAt time.Time) error {
	res := []*User{}
	err := tx.NewRaw(StoreResetTicketSQL, hash, expiresAt, id.String()).Scan(ctx, &res)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return recordNotFound(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (a *users) StoreVerifyTicketTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, expiresAt time.Time) error {
	res := []*User{}
	err := tx.NewRaw(StoreVerifyTicketSQL, hash, expiresAt, id.String()).Scan(ctx, &res)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return recordNotFound(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (a *users) ConsumeResetTicketTx(ctx context.Context, tx bun.IDB, hash, passwordHash string, now time.Time) (*User, error) {
	res := []*User{}
	err := tx.NewRaw(ConsumeResetTicketSQL, passwordHash, hash, now).Scan(ctx, &res)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrInvalidOrExpiredTicket
	}

	return res[0], nil
}

func (a *users) ConsumeVerifyTicketTx(ctx context.Context, tx bun.IDB, hash string, now time.Time) (*User, error) {
	res := []*User{}
	err := tx.NewRaw(ConsumeVerifyTicketSQL, hash, now).Scan(ctx, &res)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrInvalidOrExpiredTicket
	}

	return res[0], nil
}

// recordNotFound mirrors the repository driver's not-found shape so callers
// keep working with goerrors.IsNotFound.
func recordNotFound(meta map[string]any) *goerrors.Error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithTextCode("record_not_found").
		WithCode(goerrors.CodeNotFound).
		WithMetadata(meta)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleStudent
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
