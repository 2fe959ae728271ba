package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// KeyAssignment records one leader singing a song in one key.
type KeyAssignment struct {
	Leader string `json:"leader"`
	Key    string `json:"key"`
}

// Song is the central record: a title, its original artist, and the
// leaders and keys it has been performed with.
type Song struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	OrigSinger     string          `json:"origSinger"`
	WorshipLeaders []string        `json:"worshipLeaders"`
	Keys           []KeyAssignment `json:"keys"`
	CreatedAt      time.Time       `json:"createdAt"`
}

const songColumns = `id, title, orig_singer, worship_leaders, keys, created_at`

const listSongsQuery = `
		SELECT ` + songColumns + `
		FROM songs
		ORDER BY created_at ASC, id ASC`

const getSongQuery = `
		SELECT ` + songColumns + `
		FROM songs
		WHERE id = $1`

const createSongQuery = `
		INSERT INTO songs (id, title, orig_singer)
		VALUES ($1, $2, $3)
		RETURNING ` + songColumns

const createSongWithLeaderQuery = `
		INSERT INTO songs (id, title, orig_singer, worship_leaders, keys)
		VALUES ($1, $2, $3, ARRAY[$4::text], jsonb_build_array(jsonb_build_object('leader', $4::text, 'key', $5::text)))
		RETURNING ` + songColumns

// appendLeaderKeyQuery appends unconditionally to both arrays.
const appendLeaderKeyQuery = `
		UPDATE songs
		SET worship_leaders = array_append(worship_leaders, $2::text),
		    keys = keys || jsonb_build_array(jsonb_build_object('leader', $2::text, 'key', $3::text))
		WHERE id = $1
		RETURNING ` + songColumns

// unionLeaderKeyQuery only appends elements not already present.
const unionLeaderKeyQuery = `
		UPDATE songs
		SET worship_leaders = CASE
		        WHEN $2::text = ANY(worship_leaders) THEN worship_leaders
		        ELSE array_append(worship_leaders, $2::text)
		    END,
		    keys = CASE
		        WHEN keys @> jsonb_build_array(jsonb_build_object('leader', $2::text, 'key', $3::text)) THEN keys
		        ELSE keys || jsonb_build_array(jsonb_build_object('leader', $2::text, 'key', $3::text))
		    END
		WHERE id = $1
		RETURNING ` + songColumns

const replaceLeadersQuery = `
		UPDATE songs
		SET worship_leaders = $2, keys = $3::jsonb
		WHERE id = $1
		RETURNING ` + songColumns

const deleteSongQuery = `
		DELETE FROM songs
		WHERE id = $1`

// ListSongs returns every song, oldest first.
func (s *Store) ListSongs(ctx context.Context) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx, listSongsQuery)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	songs := []Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

// GetSong returns a single song by id.
func (s *Store) GetSong(ctx context.Context, id string) (Song, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Song{}, ErrSongNotFound
	}
	return s.songRow(ctx, "get song", getSongQuery, id)
}

// CreateSong inserts a song with no leaders and no keys.
func (s *Store) CreateSong(ctx context.Context, title, origSinger string) (Song, error) {
	return s.songRow(ctx, "insert song", createSongQuery, uuid.NewString(), title, origSinger)
}

// CreateSongWithLeader inserts a song together with its first leader and
// key in one statement.
func (s *Store) CreateSongWithLeader(ctx context.Context, title, origSinger string, assignment KeyAssignment) (Song, error) {
	return s.songRow(ctx, "insert song with leader", createSongWithLeaderQuery, uuid.NewString(), title, origSinger, assignment.Leader, assignment.Key)
}

// MergeLeaderKey appends the leader and the assignment to the stored arrays
// in one statement, so concurrent merges against the same song all survive.
// When allowDuplicates is false the append becomes a set union.
func (s *Store) MergeLeaderKey(ctx context.Context, id string, assignment KeyAssignment, allowDuplicates bool) (Song, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Song{}, ErrSongNotFound
	}
	query := unionLeaderKeyQuery
	if allowDuplicates {
		query = appendLeaderKeyQuery
	}
	return s.songRow(ctx, "merge leader key", query, id, assignment.Leader, assignment.Key)
}

// ReplaceLeaders overwrites both arrays of the song.
func (s *Store) ReplaceLeaders(ctx context.Context, id string, leaders []string, keys []KeyAssignment) (Song, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Song{}, ErrSongNotFound
	}
	if leaders == nil {
		leaders = []string{}
	}
	keysJSON, err := marshalKeys(keys)
	if err != nil {
		return Song{}, err
	}
	return s.songRow(ctx, "replace leaders", replaceLeadersQuery, id, pq.Array(leaders), keysJSON)
}

// DeleteSong removes the whole record.
func (s *Store) DeleteSong(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrSongNotFound
	}
	res, err := s.db.ExecContext(ctx, deleteSongQuery, id)
	if err != nil {
		return fmt.Errorf("delete song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete song: %w", err)
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

func (s *Store) songRow(ctx context.Context, op, query string, args ...any) (Song, error) {
	song, err := scanSong(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, fmt.Errorf("%s: %w", op, err)
	}
	return song, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (Song, error) {
	var (
		song     Song
		leaders  pq.StringArray
		keysJSON []byte
	)
	if err := row.Scan(&song.ID, &song.Title, &song.OrigSinger, &leaders, &keysJSON, &song.CreatedAt); err != nil {
		return Song{}, err
	}
	song.WorshipLeaders = []string(leaders)
	if song.WorshipLeaders == nil {
		song.WorshipLeaders = []string{}
	}
	keys, err := unmarshalKeys(keysJSON)
	if err != nil {
		return Song{}, fmt.Errorf("decode keys for song %s: %w", song.ID, err)
	}
	song.Keys = keys
	return song, nil
}

func marshalKeys(keys []KeyAssignment) (string, error) {
	if keys == nil {
		keys = []KeyAssignment{}
	}
	b, err := json.Marshal(keys)
	if err != nil {
		return "", fmt.Errorf("encode keys: %w", err)
	}
	return string(b), nil
}

func unmarshalKeys(raw []byte) ([]KeyAssignment, error) {
	keys := []KeyAssignment{}
	if len(raw) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []KeyAssignment{}
	}
	return keys, nil
}

// CloneSong returns a deep copy so callers never share slices with stored state.
func CloneSong(src Song) Song {
	clone := src
	clone.WorshipLeaders = append([]string{}, src.WorshipLeaders...)
	clone.Keys = append([]KeyAssignment{}, src.Keys...)
	return clone
}
