package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kkkkikiki/training/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// DB holds the database connection
type DB struct {
	Conn   *sqlx.DB
	Driver string
}

// NewDB creates a new database connection using config
func NewDB(ctx context.Context, cfg *config.Config) (*DB, error) {
	return Open(ctx, cfg.Database.Driver, cfg.Database.GetDatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
}

// Open connects to the given driver and configures the pool.
// SQLite gets a single connection: it allows one writer at a time.
func Open(ctx context.Context, driver, dsn string, maxConns, minConns int) (*DB, error) {
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	// Configure connection pool
	if driver == "sqlite3" {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(maxConns)
		conn.SetMaxIdleConns(minConns)
		conn.SetConnMaxLifetime(time.Hour)
	}

	// Test connection
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	slog.Info("connected to database", "driver", driver)

	return &DB{Conn: conn, Driver: driver}, nil
}

// Migrate creates missing tables and indexes. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if err := db.Conn.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", db.Driver, err)
	}

	return nil
}
