package social

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// HTTPController handles social auth HTTP routes.
type HTTPController struct {
	authenticator *SocialAuthenticator
	config        HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// SuccessRedirect is where the browser lands after a completed login.
	// The issued JWT is appended as a token query parameter.
	SuccessRedirect string

	// ErrorRedirect is the redirect for auth errors.
	ErrorRedirect string
}

// NewHTTPController creates a new social auth HTTP controller.
func NewHTTPController(authenticator *SocialAuthenticator, cfg HTTPConfig) *HTTPController {
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login?error=auth_failed"
	}

	return &HTTPController{
		authenticator: authenticator,
		config:        cfg,
	}
}

// RegisterRoutes registers social auth routes on the given router group.
func (c *HTTPController) RegisterRoutes(group fiber.Router) {
	group.Get("/providers", c.ListProviders)
	group.Get("/:provider/callback", c.Callback)
	group.Get("/:provider", c.BeginAuth)
}

// ListProviders returns available social providers.
func (c *HTTPController) ListProviders(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"providers": c.authenticator.ListProviders(),
	})
}

// BeginAuth starts the OAuth flow and redirects to the provider consent page.
func (c *HTTPController) BeginAuth(ctx *fiber.Ctx) error {
	providerName := ctx.Params("provider")

	redirectURL := ctx.Query("redirect_url")
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	redirect, err := c.authenticator.BeginAuth(ctx.UserContext(), providerName, redirectURL)
	if err != nil {
		return c.redirectError(ctx, err)
	}

	return ctx.Redirect(redirect.URL, fiber.StatusTemporaryRedirect)
}

// Callback completes the OAuth flow after the provider redirects back.
func (c *HTTPController) Callback(ctx *fiber.Ctx) error {
	providerName := ctx.Params("provider")

	if errParam := ctx.Query("error"); errParam != "" {
		return c.redirectError(ctx, goerrors.New("provider denied authorization", goerrors.CategoryAuth).
			WithTextCode(errParam))
	}

	result, err := c.authenticator.CompleteAuth(
		ctx.UserContext(),
		providerName,
		ctx.Query("code"),
		ctx.Query("state"),
	)
	if err != nil {
		return c.redirectError(ctx, err)
	}

	target := result.RedirectURL
	if target == "" {
		target = c.config.SuccessRedirect
	}

	return ctx.Redirect(appendQuery(target, "token", result.Token), fiber.StatusSeeOther)
}

// redirectError sends the browser back to the frontend with an error code.
// OAuth flows end in redirects, so the JSON envelope never applies here.
func (c *HTTPController) redirectError(ctx *fiber.Ctx, err error) error {
	code := "auth_failed"
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode != "" {
		code = rich.TextCode
	}

	return ctx.Redirect(appendQuery(c.config.ErrorRedirect, "error", code), fiber.StatusSeeOther)
}

func appendQuery(rawURL, key, value string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	query.Set(key, value)
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
