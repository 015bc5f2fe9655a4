// Package main is the entrypoint for the meetings API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/meetingsapi/meetings/internal/cache"
	"github.com/meetingsapi/meetings/internal/config"
	"github.com/meetingsapi/meetings/internal/events"
	"github.com/meetingsapi/meetings/internal/handler"
	"github.com/meetingsapi/meetings/internal/metrics"
	"github.com/meetingsapi/meetings/internal/middleware"
	"github.com/meetingsapi/meetings/internal/repository"
	"github.com/meetingsapi/meetings/internal/server"
	"github.com/meetingsapi/meetings/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	poolOpts := repository.DefaultPoolOptions()
	poolOpts.MaxConns = cfg.DBMaxConns
	poolOpts.MinConns = cfg.DBMinConns
	poolOpts.StatementTimeout = cfg.DBStatementTimeout
	repo, err := repository.New(ctx, cfg.DatabaseURL, poolOpts)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheOpts := cache.DefaultOptions()
	cacheOpts.HoursTTL = cfg.HoursCacheTTL
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cacheOpts)
	if err != nil {
		logger.Error("failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()

	var publisher service.EventPublisher
	var eventPublisher *events.Publisher
	if cfg.EventsEnabled {
		eventPublisher = events.NewPublisher(cacheClient.Client(), logger, recorder)
		publisher = eventPublisher
	}

	meetingService := service.NewMeetingService(repo, cacheClient, publisher, recorder, logger, cfg.EmailDomains())

	r := setupRouter(routerDeps{
		root:     handler.New(),
		health:   handler.NewHealthHandler(repo, cacheClient),
		meetings: handler.NewMeetingHandler(meetingService, logger),
		metrics:  handler.NewMetricsHandler(recorder),
		limiter:  cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Released in reverse: pending events first, then Redis, then Postgres.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	if eventPublisher != nil {
		srv.OnShutdown("events", eventPublisher.Drain)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"events_enabled", cfg.EventsEnabled,
		"rate_limit_enabled", cfg.RateLimitEnabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	root     *handler.Handler
	health   *handler.HealthHandler
	meetings *handler.MeetingHandler
	metrics  *handler.MetricsHandler
	limiter  middleware.IPLimiter
	cfg      *config.Config
	logger   *slog.Logger
}

func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsDevelopment = d.cfg.IsDevelopment()
	securityCfg.MaxRequestBodySize = d.cfg.MaxRequestBodySize

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(securityCfg.MaxRequestBodySize))

	r.Get("/", d.root.Hello)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)

	r.Route("/meetings", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:  d.logger,
			Limiter: d.limiter,
			Enabled: d.cfg.RateLimitEnabled,
			RPS:     d.cfg.RateLimitRPS,
			Burst:   d.cfg.RateLimitBurst,
		}))
		d.meetings.Routes(r)
	})

	r.NotFound(d.root.NotFound)
	r.MethodNotAllowed(d.root.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	if parsed.User != nil {
		if username := parsed.User.Username(); username != "" {
			parsed.User = url.User(username)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	return parsed.String()
}

// sanitizeError replaces connection strings in err with their redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
