package listview

import (
	"context"
	"fmt"
	"testing"

	"setlist/internal/store"
)

func makeSongs(n int) []store.Song {
	songs := make([]store.Song, 0, n)
	for i := 0; i < n; i++ {
		songs = append(songs, store.Song{ID: fmt.Sprintf("id-%d", i), Title: fmt.Sprintf("Song %d", i), OrigSinger: "Artist"})
	}
	return songs
}

func TestFilterMatchesTitleOrSinger(t *testing.T) {
	songs := []store.Song{
		{ID: "1", Title: "Amazing Grace", OrigSinger: "Chris Tomlin"},
		{ID: "2", Title: "Oceans", OrigSinger: "Hillsong United"},
		{ID: "3", Title: "Way Maker", OrigSinger: "Sinach"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "title", query: "grace", want: []string{"1"}},
		{name: "singer", query: "HILLSONG", want: []string{"2"}},
		{name: "either field", query: "in", want: []string{"1", "2", "3"}},
		{name: "empty", query: "", want: []string{"1", "2", "3"}},
		{name: "no match", query: "zzz", want: nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(songs, tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %d songs", tc.want, len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("expected %v at %d, got %s", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	songs := makeSongs(25)

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantStart int
		wantEnd   int
		wantFirst int
		wantLast  int
	}{
		{name: "first", page: 1, wantPage: 1, wantStart: 0, wantEnd: 12, wantFirst: 1, wantLast: 12},
		{name: "last", page: 3, wantPage: 3, wantStart: 24, wantEnd: 25, wantFirst: 25, wantLast: 25},
		{name: "past end clamps", page: 4, wantPage: 3, wantStart: 24, wantEnd: 25, wantFirst: 25, wantLast: 25},
		{name: "zero clamps", page: 0, wantPage: 1, wantStart: 0, wantEnd: 12, wantFirst: 1, wantLast: 12},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(songs, "", tc.page, PageSize)
			if p.TotalPages != 3 || p.Total != 25 {
				t.Fatalf("expected 3 pages of 25, got %d of %d", p.TotalPages, p.Total)
			}
			if p.Page != tc.wantPage || p.StartIndex != tc.wantStart || p.EndIndex != tc.wantEnd {
				t.Fatalf("unexpected page %+v", p)
			}
			if p.First != tc.wantFirst || p.Last != tc.wantLast {
				t.Fatalf("unexpected labels %d-%d", p.First, p.Last)
			}
			if len(p.Songs) != tc.wantEnd-tc.wantStart {
				t.Fatalf("expected %d songs, got %d", tc.wantEnd-tc.wantStart, len(p.Songs))
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate(nil, "anything", 5, PageSize)
	if p.TotalPages != 1 || p.Page != 1 {
		t.Fatalf("expected a single empty page, got %+v", p)
	}
	if p.First != 0 || p.Last != 0 || len(p.Songs) != 0 {
		t.Fatalf("expected no labels, got %+v", p)
	}
}

type sliceSource struct {
	songs    []store.Song
	fn       func([]store.Song)
	released int
}

func (s *sliceSource) SubscribeSongs(_ context.Context, fn func([]store.Song)) (func(), error) {
	s.fn = fn
	fn(s.songs)
	return func() { s.released++ }, nil
}

func (s *sliceSource) push(songs []store.Song) {
	s.fn(songs)
}

func TestControllerQueryResetsPage(t *testing.T) {
	src := &sliceSource{songs: makeSongs(30)}
	c, err := Open(context.Background(), src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if p := c.GoTo(3); p.Page != 3 {
		t.Fatalf("expected page 3, got %d", p.Page)
	}
	p := c.SetQuery("song 1")
	if p.Page != 1 {
		t.Fatalf("expected reset to page 1, got %d", p.Page)
	}
	if p.Total != 11 {
		t.Fatalf("expected 11 matches, got %d", p.Total)
	}
}

func TestControllerNavigationClamps(t *testing.T) {
	src := &sliceSource{songs: makeSongs(13)}
	c, _ := Open(context.Background(), src)
	defer c.Close()

	if p := c.Prev(); p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
	c.Next()
	if p := c.Next(); p.Page != 2 {
		t.Fatalf("expected clamp to page 2, got %d", p.Page)
	}
}

func TestControllerSourceChangeClampsPage(t *testing.T) {
	src := &sliceSource{songs: makeSongs(30)}
	c, _ := Open(context.Background(), src)
	defer c.Close()

	c.GoTo(3)
	src.push(makeSongs(5))

	v := c.View()
	if v.Page != 1 || v.Total != 5 {
		t.Fatalf("expected clamped page 1 of 5 songs, got %+v", v)
	}
	select {
	case <-c.Changes():
	default:
		t.Fatalf("expected a change signal")
	}
}

func TestControllerCloseReleasesSubscription(t *testing.T) {
	src := &sliceSource{}
	c, _ := Open(context.Background(), src)

	c.Close()
	c.Close()
	if src.released != 1 {
		t.Fatalf("expected one release, got %d", src.released)
	}
	// Drains any pending signal and ends only once the channel is closed.
	for range c.Changes() {
	}

	src.push(makeSongs(3))
	if got := len(c.Songs()); got != 0 {
		t.Fatalf("closed controller took an update: %d songs", got)
	}
}

func TestControllerWithMemoryGateway(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	c, err := Open(ctx, m)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, err := m.CreateSong(ctx, "Build My Life", "Housefires"); err != nil {
		t.Fatalf("CreateSong: %v", err)
	}
	if v := c.SetQuery("house"); v.Total != 1 {
		t.Fatalf("expected live update to be visible, got %+v", v)
	}
}
