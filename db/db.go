package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// schema holds the tables the gateway owns. Cart documents live in the cart service.
const schema = `
CREATE TABLE IF NOT EXISTS device_storage (
	device_id  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (device_id, key)
)`

// Open opens and pings a Postgres connection pool through the pgx driver
func Open(ctx context.Context, dsn string, maxOpenConns int, logger *zap.Logger) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(maxOpenConns / 2)
	}
	conn.SetConnMaxLifetime(30 * time.Minute)

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("✓ Database connection established successfully")
	return conn, nil
}

// EnsureSchema creates the gateway's tables if they do not exist
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create device_storage table: %w", err)
	}
	return nil
}
