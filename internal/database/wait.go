package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// waitPolicy bounds how long startup waits for a store. Containers for
// MariaDB and Redis often come up after the API container.
type waitPolicy struct {
	attempts    int
	pingTimeout time.Duration
	backoff     time.Duration
	maxBackoff  time.Duration
}

var defaultWait = waitPolicy{
	attempts:    10,
	pingTimeout: 5 * time.Second,
	backoff:     time.Second,
	maxBackoff:  30 * time.Second,
}

// waitReady calls ping until it succeeds, doubling the pause between
// attempts. It gives up after the last attempt or when ctx is done.
func waitReady(ctx context.Context, name string, ping func(context.Context) error, p waitPolicy) error {
	backoff := p.backoff
	var err error
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, p.pingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt >= p.attempts {
			return fmt.Errorf("%s not ready after %d attempts: %w", name, attempt, err)
		}

		slog.Warn("store not ready",
			slog.String("store", name),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, p.maxBackoff)
	}
}
