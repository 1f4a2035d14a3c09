package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"strings"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate crea las tablas si no existen. Es idempotente.
func Migrate(ctx context.Context, db *DB) error {
	raw, err := migrations.ReadFile("migrations/" + string(db.Dialect) + ".sql")
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
