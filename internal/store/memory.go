package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process gateway with the same semantics as Store. It backs
// STORE=memory and the tests of the layers above.
type Memory struct {
	// pubMu orders snapshot publication with the mutations that caused it.
	pubMu   sync.Mutex
	mu      sync.RWMutex
	songs   map[string]Song
	order   []string
	tracks  []Track
	singers []Singer
	hub     hub
	now     func() time.Time
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{
		songs: make(map[string]Song),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ListSongs returns every song in creation order.
func (m *Memory) ListSongs(_ context.Context) ([]Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(), nil
}

// GetSong returns a song by id.
func (m *Memory) GetSong(_ context.Context, id string) (Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	song, ok := m.songs[id]
	if !ok {
		return Song{}, ErrSongNotFound
	}
	return CloneSong(song), nil
}

// CreateSong stores a song with empty leader and key lists.
func (m *Memory) CreateSong(_ context.Context, title, origSinger string) (Song, error) {
	return m.insertSong(title, origSinger, []string{}, []KeyAssignment{}), nil
}

// CreateSongWithLeader stores a song already carrying its first leader and key.
func (m *Memory) CreateSongWithLeader(_ context.Context, title, origSinger string, assignment KeyAssignment) (Song, error) {
	return m.insertSong(title, origSinger, []string{assignment.Leader}, []KeyAssignment{assignment}), nil
}

func (m *Memory) insertSong(title, origSinger string, leaders []string, keys []KeyAssignment) Song {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	song := Song{
		ID:             uuid.NewString(),
		Title:          title,
		OrigSinger:     origSinger,
		WorshipLeaders: leaders,
		Keys:           keys,
		CreatedAt:      m.now(),
	}
	m.songs[song.ID] = song
	m.order = append(m.order, song.ID)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.hub.publish(snapshot)
	return CloneSong(song)
}

// MergeLeaderKey appends to the stored arrays under the write lock, so two
// merges against the same song both land.
func (m *Memory) MergeLeaderKey(_ context.Context, id string, assignment KeyAssignment, allowDuplicates bool) (Song, error) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	song, ok := m.songs[id]
	if !ok {
		m.mu.Unlock()
		return Song{}, ErrSongNotFound
	}
	song = CloneSong(song)
	if allowDuplicates || !slices.Contains(song.WorshipLeaders, assignment.Leader) {
		song.WorshipLeaders = append(song.WorshipLeaders, assignment.Leader)
	}
	if allowDuplicates || !slices.Contains(song.Keys, assignment) {
		song.Keys = append(song.Keys, assignment)
	}
	m.songs[id] = song
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.hub.publish(snapshot)
	return CloneSong(song), nil
}

// ReplaceLeaders overwrites both arrays of the song.
func (m *Memory) ReplaceLeaders(_ context.Context, id string, leaders []string, keys []KeyAssignment) (Song, error) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	song, ok := m.songs[id]
	if !ok {
		m.mu.Unlock()
		return Song{}, ErrSongNotFound
	}
	song.WorshipLeaders = append([]string{}, leaders...)
	song.Keys = append([]KeyAssignment{}, keys...)
	m.songs[id] = song
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.hub.publish(snapshot)
	return CloneSong(song), nil
}

// DeleteSong removes a song by id.
func (m *Memory) DeleteSong(_ context.Context, id string) error {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	if _, ok := m.songs[id]; !ok {
		m.mu.Unlock()
		return ErrSongNotFound
	}
	delete(m.songs, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.hub.publish(snapshot)
	return nil
}

// SubscribeSongs delivers the current collection to fn and again after
// every mutation until the returned function is called.
func (m *Memory) SubscribeSongs(ctx context.Context, fn func([]Song)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.RLock()
	snapshot := m.snapshotLocked()
	m.mu.RUnlock()

	unsubscribe := m.hub.add(fn)
	fn(snapshot)
	return unsubscribe, nil
}

func (m *Memory) snapshotLocked() []Song {
	result := make([]Song, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, CloneSong(m.songs[id]))
	}
	return result
}

// ListTracks returns tracks newest first, optionally for one category.
func (m *Memory) ListTracks(_ context.Context, category string) ([]Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []Track{}
	for _, t := range m.tracks {
		if category == "" || t.Category == category {
			result = append(result, t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Title < result[j].Title
	})
	return result, nil
}

// TrackTitleExists reports whether a track already uses the title.
func (m *Memory) TrackTitleExists(_ context.Context, title string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tracks {
		if t.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// CreateTrack stores the track.
func (m *Memory) CreateTrack(_ context.Context, track Track) (Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tracks {
		if t.Title == track.Title {
			return Track{}, ErrTrackExists
		}
	}
	track.ID = uuid.NewString()
	track.CreatedAt = m.now()
	m.tracks = append(m.tracks, track)
	return track, nil
}

// ListSingers returns the singers collection ordered by name.
func (m *Memory) ListSingers(_ context.Context) ([]Singer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Singer, 0, len(m.singers))
	for _, s := range m.singers {
		keys := make(map[string]string, len(s.Keys))
		for title, key := range s.Keys {
			keys[title] = key
		}
		result = append(result, Singer{ID: s.ID, Name: s.Name, Keys: keys})
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// CreateSinger adds a singer entry, assigning an id when missing.
func (m *Memory) CreateSinger(ctx context.Context, singer Singer) (Singer, error) {
	if err := ctx.Err(); err != nil {
		return Singer{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if singer.ID == "" {
		singer.ID = uuid.NewString()
	}
	keys := make(map[string]string, len(singer.Keys))
	for title, key := range singer.Keys {
		keys[title] = key
	}
	singer.Keys = keys
	m.singers = append(m.singers, singer)
	return singer, nil
}
