// Package database opens the MariaDB pool and the Redis client shared by
// every plugin, runs schema migrations, and reports store health.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/inkwell/internal/config"
)

// OpenMariaDB opens the pool, applies the pool limits from cfg, and waits
// until the server answers a ping. Cancelling ctx stops the wait.
func OpenMariaDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitReady(ctx, "mariadb", db.PingContext, defaultWait); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
