package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryConcurrentMergesAllLand(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	song, err := m.CreateSong(ctx, "Amazing Grace", "Chris Tomlin")
	if err != nil {
		t.Fatalf("CreateSong: %v", err)
	}
	if _, err := m.MergeLeaderKey(ctx, song.ID, KeyAssignment{Leader: "A", Key: "C"}, true); err != nil {
		t.Fatalf("MergeLeaderKey: %v", err)
	}

	var wg sync.WaitGroup
	for _, leader := range []string{"B", "C"} {
		wg.Add(1)
		go func(leader string) {
			defer wg.Done()
			if _, err := m.MergeLeaderKey(ctx, song.ID, KeyAssignment{Leader: leader, Key: "D"}, true); err != nil {
				t.Errorf("MergeLeaderKey(%s): %v", leader, err)
			}
		}(leader)
	}
	wg.Wait()

	got, err := m.GetSong(ctx, song.ID)
	if err != nil {
		t.Fatalf("GetSong: %v", err)
	}
	seen := map[string]bool{}
	for _, l := range got.WorshipLeaders {
		seen[l] = true
	}
	for _, want := range []string{"A", "B", "C"} {
		if !seen[want] {
			t.Fatalf("leader %s lost, got %v", want, got.WorshipLeaders)
		}
	}
	if len(got.Keys) != 3 {
		t.Fatalf("expected 3 keys, got %v", got.Keys)
	}
}

func TestMemoryUnionMerge(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	song, _ := m.CreateSong(ctx, "Oceans", "Hillsong United")
	for _, a := range []KeyAssignment{{"A", "C"}, {"A", "C"}, {"A", "D"}} {
		if _, err := m.MergeLeaderKey(ctx, song.ID, a, false); err != nil {
			t.Fatalf("MergeLeaderKey: %v", err)
		}
	}

	got, _ := m.GetSong(ctx, song.ID)
	if len(got.WorshipLeaders) != 1 {
		t.Fatalf("expected one leader entry, got %v", got.WorshipLeaders)
	}
	if len(got.Keys) != 2 {
		t.Fatalf("expected two distinct keys, got %v", got.Keys)
	}
}

func TestMemorySubscribeDeliversUntilReleased(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var (
		mu    sync.Mutex
		sizes []int
	)
	unsubscribe, err := m.SubscribeSongs(ctx, func(songs []Song) {
		mu.Lock()
		sizes = append(sizes, len(songs))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("SubscribeSongs: %v", err)
	}

	song, _ := m.CreateSong(ctx, "One", "Artist")
	_, _ = m.CreateSong(ctx, "Two", "Artist")
	unsubscribe()
	unsubscribe()
	_ = m.DeleteSong(ctx, song.ID)

	mu.Lock()
	defer mu.Unlock()
	want := []int{0, 1, 2}
	if len(sizes) != len(want) {
		t.Fatalf("expected deliveries %v, got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("expected deliveries %v, got %v", want, sizes)
		}
	}
}

func TestMemorySnapshotsAreCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	song, _ := m.CreateSong(ctx, "One", "Artist")
	song.WorshipLeaders = append(song.WorshipLeaders, "Intruder")

	got, _ := m.GetSong(ctx, song.ID)
	if len(got.WorshipLeaders) != 0 {
		t.Fatalf("stored song mutated through returned copy: %v", got.WorshipLeaders)
	}
}

func TestMemoryMissingSong(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.MergeLeaderKey(ctx, "missing", KeyAssignment{Leader: "A", Key: "C"}, true); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
	if _, err := m.ReplaceLeaders(ctx, "missing", nil, nil); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
	if err := m.DeleteSong(ctx, "missing"); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
}

func TestMemoryTracks(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.CreateTrack(ctx, Track{Title: "Set", Category: "Sunday Records"}); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}
	if _, err := m.CreateTrack(ctx, Track{Title: "Set", Category: "Back Tracks"}); !errors.Is(err, ErrTrackExists) {
		t.Fatalf("expected ErrTrackExists, got %v", err)
	}
	exists, err := m.TrackTitleExists(ctx, "Set")
	if err != nil || !exists {
		t.Fatalf("expected title to exist, got %v %v", exists, err)
	}
	tracks, _ := m.ListTracks(ctx, "Back Tracks")
	if len(tracks) != 0 {
		t.Fatalf("expected no back tracks, got %v", tracks)
	}
}
