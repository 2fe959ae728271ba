package dashboard

import (
	"testing"
	"time"

	"setlist/internal/store"
)

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 3, 30, 12, 0, 0, 0, time.UTC)
	songs := []store.Song{
		{ID: "1", Title: "Oceans", OrigSinger: "Hillsong United", WorshipLeaders: []string{"Anna", "Ben"}, Keys: []store.KeyAssignment{{Leader: "Anna", Key: "D"}}, CreatedAt: base},
		{ID: "2", Title: "Way Maker", OrigSinger: "Sinach", WorshipLeaders: []string{"Anna"}, CreatedAt: base.Add(48 * time.Hour)},
		{ID: "3", Title: "Undated", OrigSinger: "Hillsong United"},
	}

	got := Summarize(songs, base)

	if got.TotalSongs != 3 {
		t.Fatalf("expected 3 songs, got %d", got.TotalSongs)
	}
	if got.TotalArtists != 4 {
		t.Fatalf("expected 4 artists, got %d", got.TotalArtists)
	}
	if got.RecentUploads != 2 {
		t.Fatalf("expected 2 recent uploads, got %d", got.RecentUploads)
	}
	if got.RecentActivity[0].Message != `New song "Way Maker" by Sinach added` {
		t.Fatalf("unexpected activity %q", got.RecentActivity[0].Message)
	}
	if got.Chart.TotalWorshipLeaders != 3 || got.Chart.TotalKeys != 1 {
		t.Fatalf("unexpected chart totals %+v", got.Chart)
	}
	if got.Chart.Songs[0].WorshipLeaders != 2 {
		t.Fatalf("unexpected chart entry %+v", got.Chart.Songs[0])
	}
	if len(got.Monthly) != 2 || got.Monthly[0].Month != "2024-03" || got.Monthly[1].Month != "2024-04" {
		t.Fatalf("unexpected monthly counts %+v", got.Monthly)
	}
}

func TestSummarizeCapsRecent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var songs []store.Song
	for i := 0; i < 8; i++ {
		songs = append(songs, store.Song{ID: string(rune('a' + i)), Title: "T", OrigSinger: "S", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	got := Summarize(songs, base)
	if got.RecentUploads != RecentLimit {
		t.Fatalf("expected %d recent uploads, got %d", RecentLimit, got.RecentUploads)
	}
	if got.RecentActivity[0].SongID != "h" {
		t.Fatalf("expected newest first, got %s", got.RecentActivity[0].SongID)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil, time.Now())
	if got.TotalSongs != 0 || got.TotalArtists != 0 || len(got.RecentActivity) != 0 || len(got.Monthly) != 0 {
		t.Fatalf("expected zero summary, got %+v", got)
	}
}
