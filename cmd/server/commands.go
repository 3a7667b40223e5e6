package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/agentboard/api/internal/auth"
	"github.com/agentboard/api/internal/config"
	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/handlers"
	"github.com/agentboard/api/internal/initialization"
	"github.com/agentboard/api/internal/logging"
	"github.com/agentboard/api/internal/middleware"
	"github.com/agentboard/api/internal/validation"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "agentboard",
		Short: "Agent monitoring API server",
		Long: `agentboard serves the agent monitoring API: users, agents, executions,
execution logs and per-agent flowcharts.

Configuration is read from defaults, then the YAML file given by --config
(or CONFIG_FILE), then environment variables.

Examples:
  # Run against a local SQLite file
  DB_DRIVER=sqlite DB_SQLITE_PATH=./agentboard.db JWT_SECRET=change-me agentboard serve

  # Apply migrations only
  agentboard migrate --config ./config.yaml
`,
		SilenceUsage: true,
		// Running without a subcommand serves.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), configPath)
		},
	})

	return root
}

func loadConfig(path string) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*db.Store, error) {
	opts := db.Options{
		Dialect:         db.Dialect(cfg.Database.Driver),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	if opts.Dialect == db.DialectSQLite {
		opts.Path = cfg.Database.SQLitePath
	} else {
		opts.DSN = cfg.Database.DSN()
	}

	var store *db.Store
	err := initialization.Retry(ctx, logger, initialization.DefaultRetryConfig(), "database connection", func(ctx context.Context) error {
		var err error
		store, err = db.Open(ctx, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"driver": string(store.Dialect())}
	if store.Dialect() == db.DialectSQLite {
		fields["path"] = cfg.Database.SQLitePath
	} else {
		fields["host"] = cfg.Database.Host
		fields["port"] = cfg.Database.Port
		fields["name"] = cfg.Database.Name
	}
	logger.Info("Connected to database", fields)

	if err := store.Migrate(ctx, logger); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", nil)
	return store.Close()
}

func runServe(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("Starting agentboard API server", nil)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("failed to load request schemas: %w", err)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: handlers.NewHandler(handlers.Deps{
			Store:        store,
			Issuer:       issuer,
			Hasher:       hasher,
			Validator:    validator,
			Logger:       logger,
			RateLimiter:  limiter,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			CORS:         cfg.CORS,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err, nil)
		return err
	}

	logger.Info("Server stopped", nil)
	return nil
}
