package auth

import (
	"context"

	"github.com/devshare/auth/middleware/guard"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// guardValidator adapts TokenService to the guard middleware's validator.
type guardValidator struct {
	service TokenService
}

func (v guardValidator) Validate(tokenString string) (guard.AuthClaims, error) {
	claims, err := v.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ProtectedRouteConfig carries what the middleware needs beyond Config.
type ProtectedRouteConfig struct {
	TokenService TokenService
	Provider     IdentityProvider
	Logger       Logger
	// Roles restricts the route to callers holding one of these roles.
	// Empty means any authenticated caller.
	Roles []UserRole
}

// ProtectedRoute builds the guard middleware for routes that require an
// authenticated caller. The resolved Identity and claims are stored in the
// request's user context for handlers downstream.
func ProtectedRoute(cfg Config, pc ProtectedRouteConfig) fiber.Handler {
	logger := pc.Logger
	if logger == nil {
		logger = defLogger{}
	}

	roles := make([]string, 0, len(pc.Roles))
	for _, role := range pc.Roles {
		roles = append(roles, string(role))
	}

	return guard.New(guard.Config{
		ContextKey:     cfg.GetContextKey(),
		AuthScheme:     cfg.GetAuthScheme(),
		TokenValidator: guardValidator{service: pc.TokenService},
		RequiredRoles:  roles,
		ErrorHandler:   guardErrorHandler(logger),
		IdentityResolver: func(ctx context.Context, claims guard.AuthClaims) (context.Context, error) {
			authClaims, ok := claims.(AuthClaims)
			if !ok {
				return ctx, ErrUnauthenticated
			}

			identity, err := pc.Provider.FindIdentityByID(ctx, authClaims.UserID())
			if err != nil {
				return ctx, err
			}

			ctx = WithClaimsContext(ctx, authClaims)
			return WithIdentityContext(ctx, identity), nil
		},
	})
}

// guardErrorHandler folds middleware failures into the package error
// taxonomy so the app level error handler renders the JSON envelope.
func guardErrorHandler(logger Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return err
		}

		switch {
		case goerrors.Is(err, guard.ErrJWTMissingOrMalformed):
			return ErrUnauthenticated
		case goerrors.Is(err, guard.ErrAccessDenied):
			return ErrForbidden
		default:
			logger.Debug("guard rejected request %s %s: %v", c.Method(), c.Path(), err)
			return ErrUnauthenticated
		}
	}
}
