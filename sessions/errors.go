package sessions

import "github.com/goliatone/go-errors"

const (
	TextCodeSessionNotFound   = "session_not_found"
	TextCodeInvalidStatus     = "session_invalid_status"
	TextCodeInvalidTransition = "session_invalid_transition"
)

// ErrSessionNotFound is returned when no session matches the identifier.
var ErrSessionNotFound = errors.New("session not found", errors.CategoryNotFound).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidStatus is returned for an unknown status value.
var ErrInvalidStatus = errors.New("invalid session status", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidStatus).
	WithCode(errors.CodeBadRequest)

// ErrInvalidTransition is returned when the requested status change is not
// allowed from the session's current status.
var ErrInvalidTransition = errors.New("invalid status transition", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeBadRequest)
