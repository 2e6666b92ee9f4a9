package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrymomot/tilestore/handler"
	"github.com/dmitrymomot/tilestore/modules/account"
	"github.com/dmitrymomot/tilestore/modules/health"
	"github.com/dmitrymomot/tilestore/pkg/clientip"
	"github.com/dmitrymomot/tilestore/pkg/config"
	"github.com/dmitrymomot/tilestore/pkg/email"
	"github.com/dmitrymomot/tilestore/pkg/environment"
	"github.com/dmitrymomot/tilestore/pkg/httpserver"
	"github.com/dmitrymomot/tilestore/pkg/logger"
	mongodb "github.com/dmitrymomot/tilestore/pkg/mongo"
	"github.com/dmitrymomot/tilestore/pkg/ratelimiter"
	"github.com/dmitrymomot/tilestore/pkg/redis"
	"github.com/dmitrymomot/tilestore/pkg/requestid"
	"github.com/dmitrymomot/tilestore/svc/auth"
	"github.com/dmitrymomot/tilestore/svc/auth/mongostore"
)

const serviceName = "tilestore-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	env := environment.Parse(cfg.Env)
	log := logger.New(
		logger.WithEnvironment(env, serviceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), environment.LoggerExtractor()),
	)
	slog.SetDefault(log)
	startedAt := time.Now()

	trustedProxies, err := clientip.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	client, err := mongodb.New(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			log.Error("failed to disconnect from mongo", logger.Error(err))
		}
	}()

	store := mongostore.New(client.Database(cfg.Mongo.Database))
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	readiness := []func(context.Context) error{}
	var limiterStore ratelimiter.Store
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiterStore = ratelimiter.NewRedisStore(rdb, "tilestore:ratelimit")
		readiness = append(readiness, redis.Healthcheck(rdb))
	} else {
		mem := ratelimiter.NewMemoryStore(time.Minute)
		defer mem.Close()
		limiterStore = mem
	}
	limiter, err := ratelimiter.NewBucket(limiterStore, cfg.RateLimit.bucket())
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.Auth, store, auth.WithTokenLogger(log))
	if err != nil {
		return err
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return err
	}
	svcOpts := []auth.Option{
		auth.WithLogger(log),
		auth.WithAdminSignup(cfg.Auth.AllowAdminSignup),
		auth.WithVerificationMailer(auth.NewEmailVerificationMailer(sender, cfg.Name, cfg.URL)),
	}
	if cfg.Auth.GoogleClientID != "" {
		verifier, err := auth.NewGoogleIDTokenVerifier(ctx, cfg.Auth.GoogleClientID)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, auth.WithGoogleVerifier(verifier))
	} else {
		log.Warn("GOOGLE_CLIENT_ID is not set, google sign-in is disabled")
	}
	authSvc := auth.NewService(store, tokens, svcOpts...)

	cookies := auth.NewSessionCookies(env, cfg.Auth)

	hc := health.New(health.Options{
		Environment: env,
		Database:    mongodb.Healthcheck(client),
		Ready:       readiness,
		Logger:      log,
		StartedAt:   startedAt,
	})

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(trustedProxies...),
		environment.Middleware(env),
		logger.Middleware(log),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", requestid.Header},
			ExposedHeaders:   []string{requestid.Header, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = handler.WriteError(w, handler.ErrNotFound.Code, handler.ErrNotFound.Message)
	})

	r.Get("/", hc.Banner)
	r.Get("/db-test", hc.DatabaseStatus)
	r.Mount("/health", hc.Router())
	r.Mount("/api/auth", account.Router(account.RouterOptions{
		Service:    authSvc,
		Cookies:    cookies,
		Middleware: auth.NewMiddleware(tokens, cookies, log),
		Limiter:    limiter,
		Logger:     log,
	}))

	log.Info("starting server", slog.String("addr", cfg.HTTP.Addr()))
	return httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, r)
}
