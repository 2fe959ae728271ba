package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SongsChannel is the NOTIFY channel fired by the songs table trigger.
const SongsChannel = "songs_changed"

// DefaultSnapshotTimeout bounds each snapshot read when NewFeed gets zero.
const DefaultSnapshotTimeout = 10 * time.Second

// Feed keeps subscribers in sync with the songs table. One LISTEN connection
// serves every subscriber; each notification triggers a full re-read.
type Feed struct {
	dsn     string
	store   *Store
	timeout time.Duration
	logger  zerolog.Logger
	hub     hub

	// mu orders the initial snapshot of a new subscriber with refreshes.
	mu sync.Mutex
}

// NewFeed creates a Feed that listens on dsn and reads snapshots through
// store, each read bounded by timeout.
func NewFeed(dsn string, store *Store, timeout time.Duration, logger zerolog.Logger) *Feed {
	if timeout <= 0 {
		timeout = DefaultSnapshotTimeout
	}
	return &Feed{
		dsn:     dsn,
		store:   store,
		timeout: timeout,
		logger:  logger.With().Str("component", "song_feed").Logger(),
	}
}

// SubscribeSongs delivers the current collection to fn, then again after
// every change. The returned function releases the subscription.
func (f *Feed) SubscribeSongs(ctx context.Context, fn func([]Song)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	songs, err := f.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	unsubscribe := f.hub.add(fn)
	fn(songs)
	return unsubscribe, nil
}

// Run holds the LISTEN connection until ctx is cancelled, reconnecting with
// capped backoff when the connection drops.
func (f *Feed) Run(ctx context.Context) error {
	const (
		initialBackoff = 500 * time.Millisecond
		maxBackoff     = 30 * time.Second
	)

	backoff := initialBackoff
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		f.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("song feed disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (f *Feed) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, f.dsn)
	if err != nil {
		return fmt.Errorf("connect listener: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+SongsChannel); err != nil {
		return fmt.Errorf("listen %s: %w", SongsChannel, err)
	}
	f.logger.Info().Str("channel", SongsChannel).Msg("song feed listening")

	// Changes made while disconnected would otherwise go unnoticed.
	f.refresh(ctx)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		f.logger.Debug().Str("song_id", n.Payload).Msg("song changed")
		f.refresh(ctx)
	}
}

func (f *Feed) refresh(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hub.len() == 0 {
		return
	}
	songs, err := f.snapshot(ctx)
	if err != nil {
		f.logger.Error().Err(err).Msg("refresh song snapshot")
		return
	}
	f.hub.publish(songs)
}

// snapshot reads the collection under the per-read timeout. Callers hold mu,
// so a hung query must not outlive it.
func (f *Feed) snapshot(ctx context.Context) ([]Song, error) {
	readCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.store.ListSongs(readCtx)
}
