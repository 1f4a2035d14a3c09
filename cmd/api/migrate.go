package main

import (
	"context"
	"errors"
	"log/slog"

	"species-catalog/internal/adapters/storage/sqlstore"
	"species-catalog/internal/config"

	"github.com/spf13/cobra"
)

func migrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Crea las tablas species y profiles (idempotente)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.DBDSN == "" {
				return errors.New("DB_DSN is required")
			}
			db, err := openDB(cmd.Context(), *cfg, true)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

// openDB abre la base según DB_DRIVER y opcionalmente migra.
func openDB(ctx context.Context, cfg config.Config, migrate bool) (*sqlstore.DB, error) {
	dialect, err := sqlstore.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	db, err := sqlstore.Open(dialect, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := sqlstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("migrations applied", "dialect", dialect)
	}
	return db, nil
}
