package songs

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"setlist/internal/store"
)

// Gateway is the persistence surface the manager writes through. Additive
// merge and whole-array replace are separate calls on purpose: only the merge
// is safe against concurrent additions.
type Gateway interface {
	ListSongs(ctx context.Context) ([]store.Song, error)
	GetSong(ctx context.Context, id string) (store.Song, error)
	CreateSong(ctx context.Context, title, origSinger string) (store.Song, error)
	CreateSongWithLeader(ctx context.Context, title, origSinger string, assignment store.KeyAssignment) (store.Song, error)
	MergeLeaderKey(ctx context.Context, id string, assignment store.KeyAssignment, allowDuplicates bool) (store.Song, error)
	ReplaceLeaders(ctx context.Context, id string, leaders []string, keys []store.KeyAssignment) (store.Song, error)
	DeleteSong(ctx context.Context, id string) error
}

// Options tunes the manager.
type Options struct {
	// AllowDuplicateLeaders appends a leader even when already listed.
	AllowDuplicateLeaders bool
	// Timeout bounds each gateway call. Zero means DefaultTimeout.
	Timeout time.Duration
	// ReadAttempts bounds retries of read calls. Zero means DefaultReadAttempts.
	ReadAttempts int
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

const (
	DefaultTimeout      = 10 * time.Second
	DefaultReadAttempts = 3
)

// Service keeps a song's leader list and key list consistent. It is the only
// writer of those two fields.
type Service struct {
	gateway Gateway
	opts    Options
	logger  zerolog.Logger
	backoff time.Duration
}

// New constructs a Service over the gateway.
func New(gateway Gateway, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ReadAttempts <= 0 {
		opts.ReadAttempts = DefaultReadAttempts
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "songs").Logger()
	}
	return &Service{gateway: gateway, opts: opts, logger: logger, backoff: 200 * time.Millisecond}
}

// AllowDuplicateLeaders reports the configured duplicate policy.
func (s *Service) AllowDuplicateLeaders() bool {
	return s.opts.AllowDuplicateLeaders
}

// ListSongs returns every song.
func (s *Service) ListSongs(ctx context.Context) ([]store.Song, error) {
	var songs []store.Song
	err := s.read(ctx, "list songs", func(ctx context.Context) error {
		var err error
		songs, err = s.gateway.ListSongs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return songs, nil
}

// GetSong returns one song.
func (s *Service) GetSong(ctx context.Context, id string) (store.Song, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.Song{}, required("id")
	}
	var song store.Song
	err := s.read(ctx, "get song", func(ctx context.Context) error {
		var err error
		song, err = s.gateway.GetSong(ctx, id)
		return err
	})
	return song, err
}

// CreateSong persists a new song with no leaders and no keys. Duplicate
// titles are allowed.
func (s *Service) CreateSong(ctx context.Context, title, origSinger string) (store.Song, error) {
	title = strings.TrimSpace(title)
	origSinger = strings.TrimSpace(origSinger)
	if title == "" {
		return store.Song{}, required("title")
	}
	if origSinger == "" {
		return store.Song{}, required("origSinger")
	}

	var song store.Song
	err := s.write(ctx, "create song", func(ctx context.Context) error {
		var err error
		song, err = s.gateway.CreateSong(ctx, title, origSinger)
		return err
	})
	if err != nil {
		return store.Song{}, err
	}
	s.logger.Info().Str("song_id", song.ID).Str("title", song.Title).Msg("song created")
	return song, nil
}

// UploadSong persists a new song that already carries its first leader and
// key. Either the whole record is stored or nothing is.
func (s *Service) UploadSong(ctx context.Context, title, origSinger, leader, key string) (store.Song, error) {
	title = strings.TrimSpace(title)
	origSinger = strings.TrimSpace(origSinger)
	leader = strings.TrimSpace(leader)
	key = strings.TrimSpace(key)
	for _, f := range []struct{ name, value string }{
		{"title", title}, {"origSinger", origSinger}, {"leader", leader}, {"key", key},
	} {
		if f.value == "" {
			return store.Song{}, required(f.name)
		}
	}

	var song store.Song
	err := s.write(ctx, "upload song", func(ctx context.Context) error {
		var err error
		song, err = s.gateway.CreateSongWithLeader(ctx, title, origSinger, store.KeyAssignment{Leader: leader, Key: key})
		return err
	})
	if err != nil {
		return store.Song{}, err
	}
	s.logger.Info().Str("song_id", song.ID).Str("title", song.Title).Str("leader", leader).Msg("song uploaded")
	return song, nil
}

// AddLeaderAndKey appends the leader and the {leader, key} pair to the song
// as one additive merge. The returned song is the committed record, which
// also carries additions made concurrently by other clients. On error the
// caller's song is left as it was.
func (s *Service) AddLeaderAndKey(ctx context.Context, song store.Song, leader, key string) (store.Song, error) {
	leader = strings.TrimSpace(leader)
	key = strings.TrimSpace(key)
	if song.ID == "" {
		return song, required("id")
	}
	if leader == "" {
		return song, required("leader")
	}
	if key == "" {
		return song, required("key")
	}

	var updated store.Song
	err := s.write(ctx, "add leader and key", func(ctx context.Context) error {
		var err error
		updated, err = s.gateway.MergeLeaderKey(ctx, song.ID, store.KeyAssignment{Leader: leader, Key: key}, s.opts.AllowDuplicateLeaders)
		return err
	})
	if err != nil {
		return song, err
	}
	s.logger.Info().Str("song_id", song.ID).Str("leader", leader).Str("key", key).Msg("leader and key added")
	return updated, nil
}

// RemoveLeader drops every occurrence of the leader and every key assigned
// to them, sent as one whole-array replace. Removing a leader who is not
// listed is a no-op that makes no gateway call.
func (s *Service) RemoveLeader(ctx context.Context, song store.Song, leader string) (store.Song, error) {
	leader = strings.TrimSpace(leader)
	if song.ID == "" {
		return song, required("id")
	}
	if leader == "" {
		return song, required("leader")
	}

	leaders, keys, changed := withoutLeader(song, leader)
	if !changed {
		return song, nil
	}

	var updated store.Song
	err := s.write(ctx, "remove leader", func(ctx context.Context) error {
		var err error
		updated, err = s.gateway.ReplaceLeaders(ctx, song.ID, leaders, keys)
		return err
	})
	if err != nil {
		return song, err
	}
	s.logger.Info().Str("song_id", song.ID).Str("leader", leader).Msg("leader removed")
	return updated, nil
}

// DeleteSong removes the whole record.
func (s *Service) DeleteSong(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return required("id")
	}
	err := s.write(ctx, "delete song", func(ctx context.Context) error {
		return s.gateway.DeleteSong(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("song_id", id).Msg("song deleted")
	return nil
}

// withoutLeader filters the leader out of both arrays.
func withoutLeader(song store.Song, leader string) ([]string, []store.KeyAssignment, bool) {
	leaders := slices.DeleteFunc(slices.Clone(song.WorshipLeaders), func(l string) bool { return l == leader })
	keys := slices.DeleteFunc(slices.Clone(song.Keys), func(k store.KeyAssignment) bool { return k.Leader == leader })
	changed := len(leaders) != len(song.WorshipLeaders) || len(keys) != len(song.Keys)
	if leaders == nil {
		leaders = []string{}
	}
	if keys == nil {
		keys = []store.KeyAssignment{}
	}
	return leaders, keys, changed
}

// write runs a gateway mutation once under the per-call timeout.
func (s *Service) write(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := fn(callCtx); err != nil {
		s.logger.Error().Err(err).Str("op", op).Msg("gateway write failed")
		return &PersistenceFailure{Op: op, Err: err}
	}
	return nil
}

// read runs a gateway read under the per-call timeout, retrying with
// capped backoff. Not-found is final and is never retried.
func (s *Service) read(ctx context.Context, op string, fn func(context.Context) error) error {
	const maxBackoff = 2 * time.Second

	backoff := s.backoff
	var lastErr error
	for attempt := 1; attempt <= s.opts.ReadAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		lastErr = fn(callCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, store.ErrSongNotFound) || ctx.Err() != nil || attempt == s.opts.ReadAttempts {
			break
		}

		s.logger.Warn().Err(lastErr).Str("op", op).Int("attempt", attempt).Msg("gateway read failed, retrying")
		select {
		case <-ctx.Done():
			return &PersistenceFailure{Op: op, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return &PersistenceFailure{Op: op, Err: lastErr}
}
