package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const sqlitePrefix = "sqlite://"

// Connect opens a PostgreSQL pool, or a SQLite database when dsn starts with sqlite://.
func Connect(dsn string, timeout time.Duration) (*sqlx.DB, error) {
	driver, source := "postgres", dsn
	if strings.HasPrefix(dsn, sqlitePrefix) {
		driver, source = "sqlite3", strings.TrimPrefix(dsn, sqlitePrefix)
	}

	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite serializes writers; a single connection keeps in-memory databases shared.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	if driver == "sqlite3" {
		if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	return db, nil
}

// IsPostgres reports whether row locks and other PostgreSQL-only statements are available.
func IsPostgres(driverName string) bool {
	return driverName == "postgres" || driverName == "pgx"
}
