package auth

import (
	stderrors "errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// Envelope is the JSON shape every endpoint responds with. Data and Token
// are omitted when empty so error bodies stay small.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Success writes a success envelope with the given HTTP status code.
func Success(ctx *fiber.Ctx, code int, env Envelope) error {
	env.Status = StatusSuccess
	return ctx.Status(code).JSON(env)
}

// WrapValidationError converts ozzo-validation failures into a rich error
// carrying per-field messages as metadata.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		fields := map[string]any{}
		for name, ferr := range verrs {
			fields[name] = ferr.Error()
		}
		return goerrors.New("validation failed", goerrors.CategoryValidation).
			WithTextCode("auth_validation_failed").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(fields)
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, "validation failed").
		WithCode(goerrors.CodeBadRequest)
}

// ErrorHandler translates errors returned by handlers into the response
// envelope. Wire it through fiber.Config so every route shares the mapping.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "something went wrong"
		status := StatusError
		var data any

		var rich *goerrors.Error
		var ferr *fiber.Error

		switch {
		case goerrors.As(err, &rich):
			if rich.Code != 0 {
				code = rich.Code
			}
			message = rich.Message
			if code < fiber.StatusInternalServerError {
				status = StatusFail
			}
			if rich.Category == goerrors.CategoryValidation && len(rich.Metadata) > 0 {
				data = fiber.Map{"validation": rich.Metadata}
			}
		case stderrors.As(err, &ferr):
			code = ferr.Code
			message = ferr.Message
			if code < fiber.StatusInternalServerError {
				status = StatusFail
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed: %s %s: %v", ctx.Method(), ctx.Path(), err)
			message = "something went wrong"
		}

		return ctx.Status(code).JSON(Envelope{
			Status:  status,
			Message: message,
			Data:    data,
		})
	}
}
