package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestCreateTrack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	date := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(createTrackQuery)).
		WithArgs(sqlmock.AnyArg(), "Sunday Set", date, "drive", "", "https://drive.example/x", "Sunday Records").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	track, err := s.CreateTrack(context.Background(), Track{
		Title:     "Sunday Set",
		Date:      date,
		Type:      "drive",
		DriveLink: "https://drive.example/x",
		Category:  "Sunday Records",
	})
	if err != nil {
		t.Fatalf("CreateTrack error: %v", err)
	}
	if track.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !track.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, track.CreatedAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTrackDuplicateTitle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(createTrackQuery)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = s.CreateTrack(context.Background(), Track{Title: "Dup", Type: "drive", Category: "Back Tracks"})
	if !errors.Is(err, ErrTrackExists) {
		t.Fatalf("expected ErrTrackExists, got %v", err)
	}
}

func TestListTracksByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(listTracksQuery)).
		WithArgs("Back Tracks").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "track_date", "type", "file_url", "drive_link", "category", "created_at"}).
			AddRow("t1", "Click Track", now, "mp3", "/media/tracks/click.mp3-1", "", "Back Tracks", now))

	tracks, err := s.ListTracks(context.Background(), "Back Tracks")
	if err != nil {
		t.Fatalf("ListTracks error: %v", err)
	}
	if len(tracks) != 1 || tracks[0].FileURL != "/media/tracks/click.mp3-1" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListSingers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(listSingersQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "keys"}).
			AddRow("s1", "Anna", []byte(`{"Oceans":"D"}`)).
			AddRow("s2", "Ben", nil))

	singers, err := s.ListSingers(context.Background())
	if err != nil {
		t.Fatalf("ListSingers error: %v", err)
	}
	if len(singers) != 2 {
		t.Fatalf("expected 2 singers, got %d", len(singers))
	}
	if singers[0].Keys["Oceans"] != "D" {
		t.Fatalf("unexpected keys %v", singers[0].Keys)
	}
	if singers[1].Keys == nil {
		t.Fatalf("expected non-nil keys map")
	}
}

func TestCreateSinger(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectExec(regexp.QuoteMeta(createSingerQuery)).
		WithArgs(sqlmock.AnyArg(), "Anna", `{"Oceans":"D"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	singer, err := s.CreateSinger(context.Background(), Singer{Name: "Anna", Keys: map[string]string{"Oceans": "D"}})
	if err != nil {
		t.Fatalf("CreateSinger error: %v", err)
	}
	if singer.ID == "" {
		t.Fatalf("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
