package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Check pings both backing stores. Used by the /healthz endpoint so the
// container orchestrator can restart an instance that lost a dependency.
func Check(ctx context.Context, db *sql.DB, rdb redis.UniversalClient) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("mariadb: %w", err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
