package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "perfreview/docs"
	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/performance"
	"perfreview/internal/domain/users"
	"perfreview/internal/platform/config"
	"perfreview/internal/platform/db"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/api"
	audithandler "perfreview/internal/transport/http/handlers/audit"
	authhandler "perfreview/internal/transport/http/handlers/auth"
	performancehandler "perfreview/internal/transport/http/handlers/performance"
	usershandler "perfreview/internal/transport/http/handlers/users"
	"perfreview/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router serves. Nil services are allowed in tests
// as long as the routes that need them are not called.
type Deps struct {
	DB          Pinger
	Auth        *auth.Service
	Users       *users.Service
	Performance *performance.Service
	AuditLog    audithandler.EventSource
	Auditor     audit.Recorder
	Metrics     *metrics.Collector
}

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// New connects to Postgres, applies migrations and the admin seed when
// enabled, and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, cfg.MigrationsDir)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		if len(applied) > 0 {
			slog.Info("migrations applied", "files", applied)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	auditSvc := audit.New(pool)
	deps := Deps{
		DB:          pool,
		Auth:        auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL),
		Users:       users.NewService(users.NewStore(pool)),
		Performance: performance.NewService(performance.NewStore(pool)),
		AuditLog:    auditSvc,
		Auditor:     auditSvc,
	}
	if cfg.MetricsEnabled {
		deps.Metrics = metrics.New()
	}

	return &App{Config: cfg, DB: pool, Router: NewRouter(cfg, deps)}, nil
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	perms := auth.StaticPermissions{}
	proxies, err := cfg.ProxyPrefixes()
	if err != nil {
		slog.Warn("ignoring trusted proxies", "err", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP(proxies))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithExemptPaths("/healthz", "/readyz")))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Metrics(deps.Metrics))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.Ping(ctx); err != nil {
			slog.Warn("readiness ping failed", "err", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	if cfg.SwaggerEnabled {
		router.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(deps.Auth, deps.Metrics).RegisterRoutes(r)
		usershandler.NewHandler(deps.Users, perms, deps.Auditor).RegisterRoutes(r)
		performancehandler.NewHandler(deps.Performance, perms, deps.Auditor, deps.Metrics).RegisterRoutes(r)
		audithandler.NewHandler(deps.AuditLog, perms).RegisterRoutes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "route_not_found", "route not found", middleware.GetRequestID(r.Context()))
	})

	return router
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("perfreview server listening", "addr", a.Config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
