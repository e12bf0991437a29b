package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/config"
	"github.com/rockguard/portal-server-go/internal/flash"
	"github.com/rockguard/portal-server-go/internal/handler"
	"github.com/rockguard/portal-server-go/internal/httputil"
	"github.com/rockguard/portal-server-go/internal/jobs"
	"github.com/rockguard/portal-server-go/internal/middleware"
	"github.com/rockguard/portal-server-go/internal/redis"
	"github.com/rockguard/portal-server-go/internal/repository"
	"github.com/rockguard/portal-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	accountRepo := repository.NewAccountRepository()
	sessionRepo := repository.NewSessionRepository()
	flashStore := flash.NewStore(isProduction)

	accountService := service.NewAccountService(accountRepo, cfg.BcryptCost)
	sessionService := service.NewSessionService(
		accountRepo, sessionRepo, cfg.SessionSecret, cfg.SessionTTL(), cfg.RememberTTL(),
	)

	var loginLimiter middleware.LoginLimiter = middleware.NewMemoryLoginLimiter()
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
		loginLimiter = middleware.NewRedisLoginLimiter(redisClient.Client)
	}

	sessionMiddleware := middleware.NewSessionMiddleware(sessionService, flashStore, isProduction)
	loginLimitMiddleware := middleware.NewLoginRateLimitMiddleware(loginLimiter, flashStore)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	renderer, err := handler.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	authHandler := handler.NewAuthHandler(accountService, sessionService, flashStore, renderer, isProduction)
	pagesHandler := handler.NewPagesHandler(flashStore, renderer)
	apiHandler := handler.NewAPIHandler()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(handler.Recoverer(renderer))
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(sessionMiddleware.LoadUser)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Get("/", pagesHandler.Home)
	r.Get("/login", authHandler.LoginPage)
	r.With(loginLimitMiddleware.Handler).Post("/login", authHandler.Login)
	r.Get("/signup", authHandler.SignupPage)
	r.Post("/signup", authHandler.Signup)
	r.Get("/logout", authHandler.Logout)
	r.Get("/forgot-password", authHandler.ForgotPasswordPage)
	r.Post("/forgot-password", authHandler.ForgotPassword)

	r.Get("/auth/google", authHandler.SocialStub("Google", "/login", "authentication"))
	r.Get("/auth/microsoft", authHandler.SocialStub("Microsoft", "/login", "authentication"))
	r.Get("/auth/google/signup", authHandler.SocialStub("Google", "/signup", "signup"))
	r.Get("/auth/microsoft/signup", authHandler.SocialStub("Microsoft", "/signup", "signup"))

	r.Get("/terms", pagesHandler.Terms)
	r.Get("/privacy", pagesHandler.Privacy)

	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware.RequireAuth)
		r.Get("/dashboard", pagesHandler.Dashboard)
		r.Get("/api/user", apiHandler.User)
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	r.NotFound(pagesHandler.NotFound)

	cleanupJob := jobs.NewCleanupJob(sessionRepo, flashStore, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
