package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kristesterWSB/MorfoLog/internal/common"
)

// Open connects to the document store. A postgres:// or postgresql:// DSN
// goes through the pgx stdlib driver; anything else is treated as a sqlite
// file path (":memory:" included).
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver = "pgx"
	}
	logger.Info("db.connecting", "driver", driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		logger.Error("db.open_failed", "driver", driver, "error", err)
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("db.ping_failed", "driver", driver, "error", err)
		return nil, common.NewAppError("DB_UNAVAILABLE", err.Error(), common.ErrDatabase)
	}

	logger.Info("db.connected", "driver", driver)
	return db, nil
}

// Migrate creates the documents table. The DDL sticks to types both sqlite
// and postgres accept; timestamps are stored as RFC 3339 text.
func Migrate(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	status      TEXT NOT NULL,
	analysis    TEXT,
	error       TEXT,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

// HealthCheck pings the store, used by the /healthz handler.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
