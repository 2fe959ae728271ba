// Package dashboard computes the summary numbers shown on the team dashboard.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"setlist/internal/store"
)

// RecentLimit caps the recent uploads list.
const RecentLimit = 5

type ChartEntry struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	WorshipLeaders int    `json:"worshipLeaders"`
	Keys           int    `json:"keys"`
}

type Chart struct {
	Songs               []ChartEntry `json:"songs"`
	TotalWorshipLeaders int          `json:"totalWorshipLeaders"`
	TotalKeys           int          `json:"totalKeys"`
}

type MonthCount struct {
	Month string `json:"month"`
	Songs int    `json:"songs"`
}

type Activity struct {
	SongID    string    `json:"songId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is the dashboard payload.
type Summary struct {
	TotalSongs     int          `json:"totalSongs"`
	TotalArtists   int          `json:"totalArtists"`
	RecentUploads  int          `json:"recentUploads"`
	RecentActivity []Activity   `json:"recentActivity"`
	Chart          Chart        `json:"chart"`
	Monthly        []MonthCount `json:"monthly"`
	GeneratedAt    time.Time    `json:"generatedAt"`
}

// Summarize aggregates songs as of now.
func Summarize(songs []store.Song, now time.Time) Summary {
	summary := Summary{
		TotalSongs:     len(songs),
		TotalArtists:   countArtists(songs),
		RecentActivity: []Activity{},
		Chart:          Chart{Songs: make([]ChartEntry, 0, len(songs))},
		Monthly:        monthly(songs),
		GeneratedAt:    now.UTC(),
	}

	for _, s := range songs {
		summary.Chart.Songs = append(summary.Chart.Songs, ChartEntry{
			ID:             s.ID,
			Title:          s.Title,
			WorshipLeaders: len(s.WorshipLeaders),
			Keys:           len(s.Keys),
		})
		summary.Chart.TotalWorshipLeaders += len(s.WorshipLeaders)
		summary.Chart.TotalKeys += len(s.Keys)
	}

	for _, s := range recent(songs, RecentLimit) {
		summary.RecentActivity = append(summary.RecentActivity, Activity{
			SongID:    s.ID,
			Message:   fmt.Sprintf("New song %q by %s added", s.Title, s.OrigSinger),
			CreatedAt: s.CreatedAt,
		})
	}
	summary.RecentUploads = len(summary.RecentActivity)
	return summary
}

// countArtists counts distinct names across original singers and leaders.
func countArtists(songs []store.Song) int {
	seen := make(map[string]struct{})
	add := func(name string) {
		if name = strings.TrimSpace(name); name != "" {
			seen[name] = struct{}{}
		}
	}
	for _, s := range songs {
		add(s.OrigSinger)
		for _, l := range s.WorshipLeaders {
			add(l)
		}
	}
	return len(seen)
}

// recent returns up to limit songs, newest first. Songs without a creation
// time are left out.
func recent(songs []store.Song, limit int) []store.Song {
	dated := make([]store.Song, 0, len(songs))
	for _, s := range songs {
		if !s.CreatedAt.IsZero() {
			dated = append(dated, s)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].CreatedAt.After(dated[j].CreatedAt)
	})
	if len(dated) > limit {
		dated = dated[:limit]
	}
	return dated
}

func monthly(songs []store.Song) []MonthCount {
	counts := make(map[string]int)
	for _, s := range songs {
		if s.CreatedAt.IsZero() {
			continue
		}
		counts[s.CreatedAt.UTC().Format("2006-01")]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthCount{Month: m, Songs: counts[m]})
	}
	return out
}
