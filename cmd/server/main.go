// Command server runs the DevShare auth backend: credential endpoints,
// Google OAuth, and the protected sessions API.
package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/devshare/auth"
	"github.com/devshare/auth/sessions"
	"github.com/devshare/auth/social"
	"github.com/devshare/auth/social/providers/google"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := auth.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := auth.DefaultLogger()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := auth.NewRepositoryManager(db)
	sessionsRepo := sessions.NewSessionsRepository(db)

	tokenService := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)

	provider := auth.NewUserProvider(repo.Users()).WithLogger(logger)
	auther := auth.NewAuthenticator(provider, cfg).
		WithLogger(logger).
		WithTokenService(tokenService)

	notifier := auth.NewLogNotifier(cfg.FrontendURL, logger)

	app := fiber.New(fiber.Config{
		AppName:      "devshare-auth",
		ErrorHandler: auth.ErrorHandler(logger),
	})

	auth.RegisterAuthRoutes(app,
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(auther),
		auth.WithControllerTokenService(tokenService),
		auth.WithControllerNotifier(notifier),
		auth.WithControllerLogger(logger),
	)

	registerSocialRoutes(app, cfg, repo, tokenService, logger)
	registerProtectedRoutes(app, cfg, repo, provider, auther, tokenService, sessionsRepo, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("shutdown: %v", err)
		}
	}()

	logger.Info("listening on %s", cfg.Address)
	if err := app.Listen(cfg.Address); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*auth.User)(nil),
		(*sessions.Session)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func registerSocialRoutes(app *fiber.App, cfg *auth.EnvConfig, repo auth.RepositoryManager, tokenService auth.TokenService, logger auth.Logger) {
	if cfg.GoogleClientID == "" {
		logger.Warn("google oauth disabled: no client id configured")
		return
	}

	stateSecret := cfg.StateSigningKey
	if stateSecret == "" {
		stateSecret = cfg.GetSigningKey()
	}
	// AES-GCM wants a fixed-size key, operators hand us arbitrary strings
	stateKey := sha256.Sum256([]byte(stateSecret))

	authenticator := social.NewSocialAuthenticator(
		repo,
		tokenService,
		social.SocialAuthConfig{
			DefaultRedirectURL:   cfg.FrontendURL + "/auth/success",
			StateEncryptionKey:   stateKey[:],
			StateHMACKey:         []byte(stateSecret),
			RequireEmailVerified: true,
		},
		social.WithLogger(logger),
		social.WithProvider(google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})),
	)

	controller := social.NewHTTPController(authenticator, social.HTTPConfig{
		SuccessRedirect: cfg.FrontendURL + "/auth/success",
		ErrorRedirect:   cfg.FrontendURL + "/login?error=auth_failed",
	})

	controller.RegisterRoutes(app.Group("/"))
}

func registerProtectedRoutes(
	app *fiber.App,
	cfg *auth.EnvConfig,
	repo auth.RepositoryManager,
	provider auth.IdentityProvider,
	auther auth.Authenticator,
	tokenService auth.TokenService,
	sessionsRepo sessions.Sessions,
	logger auth.Logger,
) {
	api := app.Group("/api", auth.ProtectedRoute(cfg, auth.ProtectedRouteConfig{
		TokenService: tokenService,
		Provider:     provider,
		Logger:       logger,
	}))

	authController := auth.NewAuthController(
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(auther),
		auth.WithControllerTokenService(tokenService),
		auth.WithControllerLogger(logger),
	)
	api.Get("/me", authController.Me).Name("me.get")

	controller := sessions.NewController(
		sessions.WithRepo(sessionsRepo),
		sessions.WithLogger(logger),
	)

	controller.RegisterRoutes(api.Group("/sessions"))

	admin := api.Group("/sessions", auth.ProtectedRoute(cfg, auth.ProtectedRouteConfig{
		TokenService: tokenService,
		Provider:     provider,
		Logger:       logger,
		Roles:        []auth.UserRole{auth.RoleModerator, auth.RoleAdmin},
	}))
	controller.RegisterAdminRoutes(admin)
}
