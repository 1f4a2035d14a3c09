// Package sqlstore implementa los repositorios sobre database/sql.
// Soporta Postgres (pgx) y SQLite (go-sqlite3); las queries usan $N en orden
// de aparición, que ambos drivers entienden.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect acepta los nombres de DB_DRIVER.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unknown db driver %q", s)
	}
}

func (d Dialect) driverName() string {
	if d == DialectSQLite {
		return "sqlite3"
	}
	return "pgx"
}

// DB es un *sql.DB que recuerda su dialecto (para migraciones).
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open abre el pool y hace ping.
func Open(dialect Dialect, dsn string) (*DB, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		// Un solo writer; además ":memory:" es por conexión.
		db.SetMaxOpenConns(1)
	} else {
		// defaults razonables para MVP (ajustable luego)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{DB: db, Dialect: dialect}, nil
}
