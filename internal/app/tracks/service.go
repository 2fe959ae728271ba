// Package tracks manages the team's recordings and backing tracks.
package tracks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"setlist/internal/store"
)

const (
	TypeMP3   = "mp3"
	TypeDrive = "drive"

	CategorySundayRecords = "Sunday Records"
	CategoryBackTracks    = "Back Tracks"
)

var (
	// ErrInvalidTrack reports a malformed upload.
	ErrInvalidTrack = errors.New("invalid track")
	// ErrDuplicateTrack reports a title already used by another track.
	ErrDuplicateTrack = errors.New("a track with this title already exists")
)

// Store persists track metadata.
type Store interface {
	ListTracks(ctx context.Context, category string) ([]store.Track, error)
	TrackTitleExists(ctx context.Context, title string) (bool, error)
	CreateTrack(ctx context.Context, track store.Track) (store.Track, error)
}

// BlobStore keeps uploaded audio and returns the URL it is served from.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// Upload is one submitted track. File and FileName are used for mp3 uploads,
// DriveLink for drive tracks.
type Upload struct {
	Title     string
	Date      time.Time
	Type      string
	Category  string
	DriveLink string
	FileName  string
	File      io.Reader
}

// Service validates uploads and records them.
type Service struct {
	store  Store
	blobs  BlobStore
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a track Service.
func New(store Store, blobs BlobStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		blobs:  blobs,
		logger: logger.With().Str("component", "tracks").Logger(),
		now:    time.Now,
	}
}

// List returns tracks newest first. An empty category returns all of them.
func (s *Service) List(ctx context.Context, category string) ([]store.Track, error) {
	if category != "" && !validCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidTrack, category)
	}
	tracks, err := s.store.ListTracks(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// Upload validates the submission, rejects duplicate titles before any file
// is written, stores the audio for mp3 tracks and records the track.
func (s *Service) Upload(ctx context.Context, in Upload) (store.Track, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.DriveLink = strings.TrimSpace(in.DriveLink)
	if err := validate(in); err != nil {
		return store.Track{}, err
	}

	exists, err := s.store.TrackTitleExists(ctx, in.Title)
	if err != nil {
		return store.Track{}, fmt.Errorf("check track title: %w", err)
	}
	if exists {
		return store.Track{}, ErrDuplicateTrack
	}

	track := store.Track{
		Title:    in.Title,
		Date:     in.Date,
		Type:     in.Type,
		Category: in.Category,
	}
	if track.Date.IsZero() {
		track.Date = s.now()
	}

	var blob string
	switch in.Type {
	case TypeMP3:
		blob = blobName(in.FileName, s.now())
		url, err := s.blobs.Put(ctx, blob, in.File)
		if err != nil {
			return store.Track{}, fmt.Errorf("store track file: %w", err)
		}
		track.FileURL = url
	case TypeDrive:
		track.DriveLink = in.DriveLink
	}

	created, err := s.store.CreateTrack(ctx, track)
	if err != nil && blob != "" {
		s.discardBlob(ctx, blob)
	}
	if errors.Is(err, store.ErrTrackExists) {
		return store.Track{}, ErrDuplicateTrack
	}
	if err != nil {
		return store.Track{}, fmt.Errorf("create track: %w", err)
	}

	s.logger.Info().Str("track_id", created.ID).Str("title", created.Title).Str("type", created.Type).Msg("track uploaded")
	return created, nil
}

// discardBlob removes a file whose track record was never written.
func (s *Service) discardBlob(ctx context.Context, name string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.blobs.Delete(cleanupCtx, name); err != nil {
		s.logger.Warn().Err(err).Str("blob", name).Msg("orphaned track file left behind")
	}
}

func validate(in Upload) error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTrack)
	}
	if !validCategory(in.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTrack, in.Category)
	}
	switch in.Type {
	case TypeMP3:
		if in.File == nil {
			return fmt.Errorf("%w: mp3 tracks need a file", ErrInvalidTrack)
		}
	case TypeDrive:
		if in.DriveLink == "" {
			return fmt.Errorf("%w: drive tracks need a link", ErrInvalidTrack)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTrack, in.Type)
	}
	return nil
}

func validCategory(c string) bool {
	return c == CategorySundayRecords || c == CategoryBackTracks
}

// blobName places the file under tracks/ with a millisecond suffix.
func blobName(fileName string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "track"
	}
	return fmt.Sprintf("tracks/%s-%d", base, now.UnixMilli())
}
