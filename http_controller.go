package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// RegisterAuthRoutes mounts the credential endpoints on the given router.
// All of them are public; protected routes are wired by the caller behind
// the guard middleware.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Signup, controller.Signup).Name("signup.post")
	app.Post(controller.Routes.Login, controller.Login).Name("login.post")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).Name("pwd-forgot.post")
	app.Patch(controller.Routes.ResetPassword+"/:token", controller.ResetPassword).Name("pwd-reset.patch")
	app.Get(controller.Routes.VerifyEmail+"/:token", controller.VerifyEmail).Name("verify-email.get")
}

type AuthControllerRoutes struct {
	Signup         string
	Login          string
	ForgotPassword string
	ResetPassword  string
	VerifyEmail    string
}

type AuthController struct {
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	TokenService TokenService
	Notifier     Notifier
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Notifier: noopNotifier{},
		Routes: &AuthControllerRoutes{
			Signup:         "/signup",
			Login:          "/login",
			ForgotPassword: "/forgot-password",
			ResetPassword:  "/reset-password",
			VerifyEmail:    "/verify-email",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.TokenService == nil {
		panic("Missing TokenService in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerTokenService(service TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.TokenService = service
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = normalizeNotifier(notifier)
		return c
	}
}

// SignupRequest payload
type SignupRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) Signup(ctx *fiber.Ctx) error {
	payload := SignupRequest{}
	if err := ctx.BodyParser(&payload); err != nil {
		return ErrMissingCredentials
	}

	if err := payload.Validate(); err != nil {
		return WrapValidationError(err)
	}

	var record *User
	handler := NewRegisterUserHandler(a.Repo).
		WithNotifier(a.Notifier).
		WithLogger(a.Logger)

	err := handler.Execute(ctx.UserContext(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		OnResponse: func(user *User) {
			record = user
		},
	})
	if err != nil {
		return err
	}

	token, err := a.TokenService.Generate(NewIdentityFromUser(record))
	if err != nil {
		return err
	}

	return Success(ctx, fiber.StatusCreated, Envelope{
		Token: token,
		Data:  record.Public(),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(ctx *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := ctx.BodyParser(&payload); err != nil {
		return ErrMissingCredentials
	}

	if payload.Email == "" || payload.Password == "" {
		return ErrMissingCredentials
	}

	if err := payload.Validate(); err != nil {
		return WrapValidationError(err)
	}

	token, err := a.Auther.Login(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return Success(ctx, fiber.StatusOK, Envelope{Token: token})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(ctx *fiber.Ctx) error {
	payload := ForgotPasswordRequest{}
	if err := ctx.BodyParser(&payload); err != nil {
		return ErrMissingCredentials
	}

	if err := payload.Validate(); err != nil {
		return WrapValidationError(err)
	}

	handler := NewInitializePasswordResetHandler(a.Repo).
		WithNotifier(a.Notifier).
		WithLogger(a.Logger)

	err := handler.Execute(ctx.UserContext(), InitializePasswordResetMessage{
		Email: payload.Email,
	})
	if err != nil {
		return err
	}

	return Success(ctx, fiber.StatusOK, Envelope{
		Message: "Token sent to email!",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPassword(ctx *fiber.Ctx) error {
	payload := ResetPasswordRequest{}
	if err := ctx.BodyParser(&payload); err != nil {
		return ErrMissingCredentials
	}

	if err := payload.Validate(); err != nil {
		return WrapValidationError(err)
	}

	var record *User
	handler := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)

	err := handler.Execute(ctx.UserContext(), FinalizePasswordResetMessage{
		Token:    ctx.Params("token"),
		Password: payload.Password,
		OnResponse: func(user *User) {
			record = user
		},
	})
	if err != nil {
		return err
	}

	// log the user straight in with the new credentials
	token, err := a.TokenService.Generate(NewIdentityFromUser(record))
	if err != nil {
		return err
	}

	return Success(ctx, fiber.StatusOK, Envelope{
		Message: "Password updated",
		Token:   token,
	})
}

func (a *AuthController) VerifyEmail(ctx *fiber.Ctx) error {
	var record *User
	handler := NewVerifyEmailHandler(a.Repo).WithLogger(a.Logger)

	err := handler.Execute(ctx.UserContext(), VerifyEmailMessage{
		Token: ctx.Params("token"),
		OnResponse: func(user *User) {
			record = user
		},
	})
	if err != nil {
		return err
	}

	return Success(ctx, fiber.StatusOK, Envelope{
		Message: "Email verified",
		Data:    record.Public(),
	})
}

// Me returns the profile of the authenticated caller. Mount it behind the
// guard middleware; it reads the identity the guard resolved.
func (a *AuthController) Me(ctx *fiber.Ctx) error {
	identity, ok := IdentityFromContext(ctx.UserContext())
	if !ok {
		return ErrUnauthenticated
	}

	if adapter, ok := identity.(UserIdentity); ok {
		return Success(ctx, fiber.StatusOK, Envelope{Data: adapter.User().Public()})
	}

	record, err := a.Repo.Users().GetByID(ctx.UserContext(), identity.ID())
	if err != nil {
		return ErrStaleIdentity
	}

	return Success(ctx, fiber.StatusOK, Envelope{Data: record.Public()})
}

// ValidateStringEquals builds an ozzo rule asserting the value matches want.
func ValidateStringEquals(want string) validation.RuleFunc {
	return func(value any) error {
		got, _ := value.(string)
		if got != want {
			return errors.New("passwords do not match")
		}
		return nil
	}
}
