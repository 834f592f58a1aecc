// @title Shelter Medical API
// @version 1.0
// @description Regímenes, vacunas, tests y ventanas de vencimiento del refugio.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelter-medical/internal/adapters/auth/introspection"
	"shelter-medical/internal/adapters/presenter/xtext"
	pg "shelter-medical/internal/adapters/storage/postgres"
	"shelter-medical/internal/config"
	"shelter-medical/internal/platform/logger"
	"shelter-medical/internal/platform/metrics"
	"shelter-medical/internal/platform/tracing"
	"shelter-medical/internal/ports/auth"
	"shelter-medical/internal/router"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "shelter-medical",
		Short:        "Shelter medical regimen API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply the schema before serving (postgres only)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DBDSN == "" {
				return errors.New("DB_DSN is required to migrate")
			}

			db, err := pg.Open(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			if err := pg.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func runServer(ctx context.Context, autoMigrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.AppName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	pr, err := xtext.New(cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("init presenter: %w", err)
	}

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		if autoMigrate {
			if err := pg.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	var verifier auth.AuthVerifier // nil: modo dev con X-Debug-User-ID
	if cfg.AuthIntrospectionURL != "" {
		verifier = introspection.NewVerifier(introspection.Config{
			URL:    cfg.AuthIntrospectionURL,
			APIKey: cfg.AuthAPIKey,
		})
	}

	handler := router.NewRouter(router.Options{
		AuthVerifier:      verifier,
		DB:                db,
		Logger:            log,
		Metrics:           metrics.New(nil),
		Presenter:         pr,
		IncludeOffShelter: cfg.IncludeOffShelter,
		ServiceName:       cfg.AppName,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr(), "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigCh:
		log.Info("shutting down", map[string]any{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", map[string]any{"error": err})
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", map[string]any{"error": err})
	}
	return nil
}
