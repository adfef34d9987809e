package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates a new identity record. The account starts
// unverified: a verification ticket is issued and mailed in the same
// request, and the verification flag only flips when the ticket is
// consumed.
type RegisterUserHandler struct {
	repo      RepositoryManager
	notifier  Notifier
	ticketTTL time.Duration
	logger    Logger
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:      repo,
		notifier:  noopNotifier{},
		ticketTTL: 15 * time.Minute,
		logger:    defLogger{},
	}
}

// WithNotifier sets the out of band notification sender.
func (h *RegisterUserHandler) WithNotifier(n Notifier) *RegisterUserHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

// WithTicketTTL overrides the verification ticket lifetime.
func (h *RegisterUserHandler) WithTicketTTL(ttl time.Duration) *RegisterUserHandler {
	if ttl > 0 {
		h.ticketTTL = ttl
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ticket := &Ticket{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing user")
		}
		if existing != nil {
			return ErrDuplicateIdentity
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Role = RoleStudent
		user.EmailVerified = false

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if ticket, err = NewTicket(h.ticketTTL); err != nil {
			return err
		}

		if err := h.repo.Users().StoreVerifyTicketTx(ctx, tx, user.ID, ticket.Hash, ticket.ExpiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification ticket")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	// Delivery is best effort: the account exists whether or not the
	// verification email lands.
	go func() {
		if err := h.notifier.Send(context.WithoutCancel(ctx), NotificationEmailVerification, user.Email, ticket.Raw); err != nil {
			h.logger.Warn("verification email dispatch failed for %s: %v", user.Email, err)
		}
	}()

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
