package sessions

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateStatusSQL keys the write on the status the transition was checked
// against, so a concurrent change makes the statement match zero rows
// instead of clobbering it.
var UpdateStatusSQL = `UPDATE "sessions" AS "ses"
SET
	"status" = ?,
	"updated_at" = ?
WHERE
	"ses"."deleted_at" IS NULL
AND "ses"."id" = ?
AND "ses"."status" = ?
RETURNING *;`

// Sessions is the repository surface for the sessions catalog.
type Sessions interface {
	repository.Repository[*Session]

	Propose(ctx context.Context, session *Session) (*Session, error)
	ListByStatus(ctx context.Context, filter ...Status) ([]*Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Session, error)
}

type sessionsRepo struct {
	repository.Repository[*Session]
	db *bun.DB
}

var (
	_ Sessions                        = (*sessionsRepo)(nil)
	_ repository.Repository[*Session] = (*sessionsRepo)(nil)
)

// NewSessionsRepository wires the generic repository with session handlers.
func NewSessionsRepository(db *bun.DB) Sessions {
	repo := repository.NewRepository[*Session](db, repository.ModelHandlers[*Session]{
		NewRecord: func() *Session { return &Session{} },
		GetID: func(s *Session) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Session, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &sessionsRepo{
		Repository: repo,
		db:         db,
	}
}

// Propose stores a new session in the pending bucket.
func (r *sessionsRepo) Propose(ctx context.Context, session *Session) (*Session, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.Status = StatusPending

	return r.Repository.Create(ctx, session)
}

// ListByStatus returns sessions, optionally narrowed to the given
// statuses, soonest first.
func (r *sessionsRepo) ListByStatus(ctx context.Context, filter ...Status) ([]*Session, error) {
	records := []*Session{}

	q := r.db.NewSelect().
		Model(&records).
		Order("starts_at ASC")

	if len(filter) > 0 {
		statuses := make([]string, 0, len(filter))
		for _, status := range filter {
			statuses = append(statuses, string(status))
		}
		q = q.Where("?TableAlias.status IN (?)", bun.In(statuses))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

// UpdateStatus validates the transition against the current record and
// applies it with an optimistic conditional write.
func (r *sessionsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Session, error) {
	if !next.IsValid() {
		return nil, ErrInvalidStatus
	}

	var updated *Session
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		current := &Session{}
		err := tx.NewSelect().
			Model(current).
			Where("?TableAlias.id = ?", id.String()).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrSessionNotFound
			}
			return err
		}

		if !current.Status.CanTransitionTo(next) {
			return goerrors.Wrap(ErrInvalidTransition, goerrors.CategoryValidation, ErrInvalidTransition.Message).
				WithTextCode(TextCodeInvalidTransition).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{
					"from": string(current.Status),
					"to":   string(next),
				})
		}

		res := []*Session{}
		err = tx.NewRaw(UpdateStatusSQL,
			string(next), time.Now(), id.String(), string(current.Status),
		).Scan(ctx, &res)
		if err != nil {
			return err
		}
		if len(res) == 0 {
			return ErrInvalidTransition
		}

		updated = res[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
