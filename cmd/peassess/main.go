// Package main is the entry point of peassess, the command-line client of the
// physical-education assessment API.
//
// Layers follow the same split as the rest of the repository:
//   - Domain: roster rules, evaluation aggregation, no external dependencies
//   - Application: session container, commands and queries
//   - Infrastructure: API client, session stores, exports, metrics
//   - Interface: the CLI presenter and command dispatch
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/edfisica/pe-assessment-hub/config"
	"github.com/edfisica/pe-assessment-hub/internal/application/session"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/external/api"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/messaging"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/observability"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/persistence/file"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/persistence/postgres"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/persistence/redis"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/service"
	"github.com/edfisica/pe-assessment-hub/internal/interface/cli"
	"github.com/edfisica/pe-assessment-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuração inválida: %v\n", err)
		return cli.ExitUsage
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING AND ERROR REPORTING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Debug("starting peassess",
		"version", cfg.App.Version,
		"env", cfg.App.Environment,
		"api", cfg.API.BaseURL,
		"session_backend", cfg.Session.Backend,
	)

	flush, err := observability.InitSentry(cfg.Observability.SentryDSN, string(cfg.App.Environment), cfg.App.Version)
	if err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer flush()

	metrics := observability.NewMetrics()
	defer func() {
		if err := metrics.WriteTextfile(cfg.Observability.MetricsFile); err != nil {
			log.Warn("failed to write metrics", "error", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SESSION STORE
	// ─────────────────────────────────────────────────────────────────────────
	store, closeStore, err := openSessionStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open session store", "backend", cfg.Session.Backend, "error", err)
		fmt.Fprintf(os.Stderr, "não foi possível abrir a sessão (%s): %v\n", cfg.Session.Backend, err)
		return cli.ExitError
	}
	defer closeStore()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS, API CLIENT, SESSION
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log.With("component", "eventbus")
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer bus.Close()

	if err := bus.Subscribe(shared.EventSessionExpired, metrics.SessionExpired); err != nil {
		log.Warn("failed to subscribe metrics", "error", err)
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Logger:   log.With("component", "api"),
		Debug:    cfg.API.Debug,
		Observer: metrics,
	})

	mgr := session.NewManager(session.Config{
		Store:     store,
		Auth:      service.NewAuthAdapter(client),
		Publisher: bus,
		Logger:    log.With("component", "session"),
	})
	client.AttachSession(mgr)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. CLI
	// ─────────────────────────────────────────────────────────────────────────
	app, err := cli.NewApp(cli.Deps{
		Session:      mgr,
		Students:     client.Students(),
		Classes:      client.Classes(),
		Evaluations:  client.Evaluations(),
		Bus:          bus,
		Features:     cfg.Features,
		Metrics:      metrics,
		Concurrency:  cfg.Concurrency,
		ExportDir:    cfg.Export.Dir,
		ReadPassword: passwordReader(),
		Logger:       log,
	})
	if err != nil {
		log.Error("failed to start", "error", err)
		return cli.ExitError
	}
	return app.Run(ctx, args)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging on stderr.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	log := logger.New(logger.Options{
		Level:     level,
		Format:    logger.Format(cfg.Observability.LogFormat),
		AddSource: cfg.IsDevelopment(),
	})
	slog.SetDefault(log)
	return log
}

// openSessionStore returns the configured store and a function that releases it.
func openSessionStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (session.Store, func(), error) {
	noop := func() {}

	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), noop, nil

	case config.SessionBackendRedis:
		cache, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, noop, err
		}
		closeCache := func() {
			if err := cache.Close(); err != nil {
				log.Warn("failed to close redis", "error", err)
			}
		}
		return redis.NewSessionStore(cache, cfg.Session.Profile, cfg.Session.TTL), closeCache, nil

	case config.SessionBackendPostgres:
		conn, err := postgres.NewConnection(ctx, postgres.Config{
			URL:            cfg.Database.URL,
			MaxConns:       int32(cfg.Database.MaxConns),
			ConnectTimeout: cfg.Database.ConnectTimeout,
		})
		if err != nil {
			return nil, noop, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				conn.Close()
				return nil, noop, fmt.Errorf("migrate: %w", err)
			}
		}
		return postgres.NewSessionStore(conn, cfg.Session.Profile), conn.Close, nil

	case config.SessionBackendFile, "":
		path := cfg.Session.Path
		if path == "" {
			p, err := file.DefaultPath()
			if err != nil {
				return nil, noop, err
			}
			path = p
		}
		return file.NewSessionStore(path, cfg.Session.Profile), noop, nil
	}
	return nil, noop, errors.New("unknown session backend " + cfg.Session.Backend)
}

// passwordReader returns a no-echo reader when stdin is a terminal. Otherwise
// the CLI reads passwords as plain lines, e.g. from a pipe.
func passwordReader() func() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
