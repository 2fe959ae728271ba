package store

import "sync"

// hub fans song snapshots out to registered subscribers.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func([]Song)
}

func (h *hub) add(fn func([]Song)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func([]Song))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// publish hands every subscriber its own copy of the snapshot.
func (h *hub) publish(songs []Song) {
	h.mu.Lock()
	fns := make([]func([]Song), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(cloneSongs(songs))
	}
}

func cloneSongs(src []Song) []Song {
	out := make([]Song, len(src))
	for i := range src {
		out[i] = CloneSong(src[i])
	}
	return out
}
