package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrSongNotFound signals the song id does not exist.
	ErrSongNotFound = errors.New("song not found")
	// ErrTrackNotFound signals the track id does not exist.
	ErrTrackNotFound = errors.New("track not found")
	// ErrTrackExists signals a track with the same title is already stored.
	ErrTrackExists = errors.New("track already exists")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
