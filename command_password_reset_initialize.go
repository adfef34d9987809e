package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Email     string
	ExpiresAt time.Time
	Success   bool
}

// InitializePasswordResetHandler creates a reset ticket for an existing
// identity. Only the sha256 hash of the ticket is persisted; the raw token
// leaves through the notifier.
type InitializePasswordResetHandler struct {
	repo      RepositoryManager
	notifier  Notifier
	ticketTTL time.Duration
	logger    Logger
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:      repo,
		notifier:  noopNotifier{},
		ticketTTL: 15 * time.Minute,
		logger:    defLogger{},
	}
}

// WithNotifier sets the out of band notification sender.
func (h *InitializePasswordResetHandler) WithNotifier(n Notifier) *InitializePasswordResetHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

// WithTicketTTL overrides the reset ticket lifetime.
func (h *InitializePasswordResetHandler) WithTicketTTL(ttl time.Duration) *InitializePasswordResetHandler {
	if ttl > 0 {
		h.ticketTTL = ttl
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	user := &User{}
	ticket := &Ticket{}
	resp := &InitializePasswordResetResponse{Email: event.Email}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		if ticket, err = NewTicket(h.ticketTTL); err != nil {
			return err
		}

		// Overwrites any previous ticket: at most one live reset ticket
		// per identity.
		if err := h.repo.Users().StoreResetTicketTx(ctx, tx, user.ID, ticket.Hash, ticket.ExpiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset ticket")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	go func() {
		if err := h.notifier.Send(context.WithoutCancel(ctx), NotificationPasswordReset, user.Email, ticket.Raw); err != nil {
			h.logger.Warn("reset email dispatch failed for %s: %v", user.Email, err)
		}
	}()

	resp.ExpiresAt = ticket.ExpiresAt
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
