package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/devshare/auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newUsersTestDB spins up an in-memory sqlite database with the users
// table, so the raw ticket SQL runs against a real engine instead of a
// fake repository.
func newUsersTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	_, err = db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(context.Background())
	require.NoError(t, err)

	return db
}

func registerTestUser(t *testing.T, repo auth.Users, email string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword("s3cret-passw0rd")
	require.NoError(t, err)

	user, err := repo.Register(context.Background(), &auth.User{
		FirstName:    "Pepe",
		LastName:     "Rone",
		Email:        email,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	return user
}

func TestUsersRepository_RegisterAndGetByEmail(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)

	created := registerTestUser(t, repo, "peperone@example.com")
	assert.Equal(t, auth.RoleStudent, created.Role)
	assert.False(t, created.EmailVerified)

	found, err := repo.GetByEmail(context.Background(), "peperone@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "peperone@example.com", found.Email)

	_, err = repo.GetByEmail(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersRepository_GetByProviderID(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)

	created, err := repo.Register(context.Background(), &auth.User{
		Email:          "oauth@example.com",
		Provider:       "google",
		ProviderUserID: "google-uid-123",
		EmailVerified:  true,
	})
	require.NoError(t, err)

	found, err := repo.GetByProviderID(context.Background(), "google", "google-uid-123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByProviderID(context.Background(), "google", "someone-else")
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersRepository_ResetTicketIsSingleUse(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)
	ctx := context.Background()

	user := registerTestUser(t, repo, "peperone@example.com")

	ticket, err := auth.NewTicket(time.Hour)
	require.NoError(t, err)

	require.NoError(t, repo.StoreResetTicketTx(ctx, db, user.ID, ticket.Hash, ticket.ExpiresAt))

	stored, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, ticket.Hash, stored.ResetTokenHash, "only the hash is persisted")

	newHash, err := auth.HashPassword("brand-new-passw0rd")
	require.NoError(t, err)

	updated, err := repo.ConsumeResetTicketTx(ctx, db, auth.HashTicketToken(ticket.Raw), newHash, time.Now())
	require.NoError(t, err)
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, newHash, updated.PasswordHash)
	assert.Empty(t, updated.ResetTokenHash)
	assert.Nil(t, updated.ResetTokenExpiresAt)

	// a second redemption of the same ticket matches zero rows
	_, err = repo.ConsumeResetTicketTx(ctx, db, auth.HashTicketToken(ticket.Raw), newHash, time.Now())
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredTicket)
}

func TestUsersRepository_ExpiredResetTicketRejected(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)
	ctx := context.Background()

	user := registerTestUser(t, repo, "peperone@example.com")

	ticket, err := auth.NewTicket(time.Hour)
	require.NoError(t, err)

	expiredAt := time.Now().Add(-time.Minute)
	require.NoError(t, repo.StoreResetTicketTx(ctx, db, user.ID, ticket.Hash, expiredAt))

	newHash, err := auth.HashPassword("brand-new-passw0rd")
	require.NoError(t, err)

	_, err = repo.ConsumeResetTicketTx(ctx, db, auth.HashTicketToken(ticket.Raw), newHash, time.Now())
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredTicket)

	// the expired ticket is rejected without touching the password
	unchanged, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, unchanged.PasswordHash)
}

func TestUsersRepository_StoreResetTicketOverwritesPrevious(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)
	ctx := context.Background()

	user := registerTestUser(t, repo, "peperone@example.com")

	first, err := auth.NewTicket(time.Hour)
	require.NoError(t, err)
	second, err := auth.NewTicket(time.Hour)
	require.NoError(t, err)

	require.NoError(t, repo.StoreResetTicketTx(ctx, db, user.ID, first.Hash, first.ExpiresAt))
	require.NoError(t, repo.StoreResetTicketTx(ctx, db, user.ID, second.Hash, second.ExpiresAt))

	newHash, err := auth.HashPassword("brand-new-passw0rd")
	require.NoError(t, err)

	// the first ticket died when the second one was issued
	_, err = repo.ConsumeResetTicketTx(ctx, db, auth.HashTicketToken(first.Raw), newHash, time.Now())
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredTicket)

	updated, err := repo.ConsumeResetTicketTx(ctx, db, auth.HashTicketToken(second.Raw), newHash, time.Now())
	require.NoError(t, err)
	assert.Equal(t, newHash, updated.PasswordHash)
}

func TestUsersRepository_VerifyTicketMarksEmailVerified(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)
	ctx := context.Background()

	user := registerTestUser(t, repo, "peperone@example.com")
	require.False(t, user.EmailVerified)

	ticket, err := auth.NewTicket(24 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, repo.StoreVerifyTicketTx(ctx, db, user.ID, ticket.Hash, ticket.ExpiresAt))

	verified, err := repo.ConsumeVerifyTicketTx(ctx, db, auth.HashTicketToken(ticket.Raw), time.Now())
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.Empty(t, verified.VerifyTokenHash)

	_, err = repo.ConsumeVerifyTicketTx(ctx, db, auth.HashTicketToken(ticket.Raw), time.Now())
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredTicket)
}

func TestUsersRepository_StoreTicketUnknownUser(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)

	ticket, err := auth.NewTicket(time.Hour)
	require.NoError(t, err)

	err = repo.StoreResetTicketTx(context.Background(), db, uuid.New(), ticket.Hash, ticket.ExpiresAt)
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersRepository_TrackSuccessfulLoginResetsAttempts(t *testing.T) {
	db := newUsersTestDB(t)
	repo := auth.NewUsersRepository(db)
	ctx := context.Background()

	user := registerTestUser(t, repo, "peperone@example.com")

	require.NoError(t, repo.TrackAttemptedLogin(ctx, user))
	require.NoError(t, repo.TrackAttemptedLogin(ctx, user))

	require.NoError(t, repo.TrackSuccessfulLogin(ctx, user))

	record, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Zero(t, record.LoginAttempts)
	assert.Nil(t, record.LoginAttemptAt)
	assert.NotNil(t, record.LoggedInAt)
}
