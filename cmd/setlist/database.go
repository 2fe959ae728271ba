package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// poolConfig sizes the connection pool and bounds how long startup waits
// for Postgres to accept connections.
type poolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectWait     time.Duration
}

func openDatabase(ctx context.Context, dsn string, pool poolConfig, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	waitCtx, cancel := context.WithTimeout(ctx, pool.ConnectWait)
	defer cancel()
	if err := waitForDatabase(waitCtx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database not reachable within %s: %w", pool.ConnectWait, err)
	}
	return db, nil
}

// waitForDatabase pings until one succeeds or ctx ends, returning the last
// ping error in the latter case.
func waitForDatabase(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	const maxDelay = 4 * time.Second

	delay := 250 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("database not ready")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay = min(delay*2, maxDelay)
	}
}
