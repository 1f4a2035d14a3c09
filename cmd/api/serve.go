package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"species-catalog/internal/adapters/auth/gotrue"
	"species-catalog/internal/adapters/search/wikipedia"
	"species-catalog/internal/adapters/storage/sqlstore"
	"species-catalog/internal/config"
	"species-catalog/internal/platform/metrics"
	"species-catalog/internal/ports/auth"
	"species-catalog/internal/router"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := slog.Default()

	var verifier auth.AuthVerifier // nil => modo dev (X-Debug-User-ID)
	if !cfg.DevMode() {
		client, err := gotrue.NewClient(gotrue.Config{
			BaseURL: cfg.AuthBaseURL,
			APIKey:  cfg.AuthAPIKey,
			Timeout: cfg.AuthTimeout,
		})
		if err != nil {
			return err
		}
		verifier = gotrue.NewVerifier(client, cfg.AuthCache)
	} else {
		log.Warn("AUTH_BASE_URL not set, running in dev mode", "header", "X-Debug-User-ID")
	}

	var db *sqlstore.DB
	if cfg.DBDSN != "" {
		opened, err := openDB(ctx, cfg, cfg.AutoMigrate)
		if err != nil {
			return err
		}
		defer opened.Close()
		db = opened
	} else {
		log.Warn("DB_DSN not set, using in-memory storage")
	}

	searcher, err := wikipedia.New(wikipedia.Config{
		BaseURL:       cfg.SearchBaseURL,
		Timeout:       cfg.SearchTimeout,
		RatePerSecond: cfg.SearchRatePerSec,
		AppVersion:    cfg.Version,
	})
	if err != nil {
		return err
	}

	r := router.NewRouter(router.Options{
		AuthVerifier:  verifier,
		DB:            db,
		Searcher:      searcher,
		Metrics:       metrics.New(),
		SearchTimeout: cfg.SearchTimeout,
		DialogTTL:     cfg.DialogTTL,
		ResolverTTL:   cfg.ResolverTTL,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		// La búsqueda puede tardar hasta SEARCH_TIMEOUT.
		WriteTimeout: cfg.SearchTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr())
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
