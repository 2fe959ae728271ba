package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Track is an uploaded recording or an external link to one.
type Track struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Type      string    `json:"type"`
	FileURL   string    `json:"fileUrl,omitempty"`
	DriveLink string    `json:"driveLink,omitempty"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

const trackColumns = `id, title, track_date, type, file_url, drive_link, category, created_at`

const listTracksQuery = `
		SELECT ` + trackColumns + `
		FROM tracks
		WHERE ($1 = '' OR category = $1)
		ORDER BY track_date DESC, title ASC`

const trackTitleExistsQuery = `
		SELECT EXISTS (SELECT 1 FROM tracks WHERE title = $1)`

const createTrackQuery = `
		INSERT INTO tracks (id, title, track_date, type, file_url, drive_link, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

// ListTracks returns tracks newest first, optionally restricted to one category.
func (s *Store) ListTracks(ctx context.Context, category string) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx, listTracksQuery, category)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []Track{}
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Date, &t.Type, &t.FileURL, &t.DriveLink, &t.Category, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

// TrackTitleExists reports whether a track already uses the title.
func (s *Store) TrackTitleExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, trackTitleExistsQuery, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("check track title: %w", err)
	}
	return exists, nil
}

// CreateTrack stores the track and fills in its id and creation time.
func (s *Store) CreateTrack(ctx context.Context, track Track) (Track, error) {
	track.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx, createTrackQuery,
		track.ID, track.Title, track.Date, track.Type, track.FileURL, track.DriveLink, track.Category,
	).Scan(&track.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Track{}, ErrTrackExists
		}
		return Track{}, fmt.Errorf("insert track: %w", err)
	}
	return track, nil
}
