package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(user *User)
}

func (p VerifyEmailMessage) Type() string { return "user.verify_email" }

// VerifyEmailHandler consumes a verification ticket: it flips the
// verification flag and clears the ticket fields in one statement.
type VerifyEmailHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash := HashTicketToken(event.Token)

		var err error
		user, err = h.repo.Users().ConsumeVerifyTicketTx(ctx, tx, hash, time.Now())
		if err != nil {
			if goerrors.Is(err, ErrInvalidOrExpiredTicket) {
				return ErrInvalidOrExpiredTicket
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification ticket")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify email")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
