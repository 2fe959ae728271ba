package listview

import (
	"context"
	"sync"

	"setlist/internal/store"
)

// Source feeds the controller the whole song collection on every change.
type Source interface {
	SubscribeSongs(ctx context.Context, fn func([]store.Song)) (func(), error)
}

// Controller holds one live subscription and the query and page a viewer is
// looking at. It never re-fetches on query or page changes.
type Controller struct {
	mu          sync.RWMutex
	songs       []store.Song
	query       string
	page        int
	pageSize    int
	unsubscribe func()
	closed      bool
	changes     chan struct{}
}

// Open subscribes to src and returns a controller showing page 1 of the
// unfiltered collection. The caller must Close it.
func Open(ctx context.Context, src Source) (*Controller, error) {
	c := &Controller{
		page:     1,
		pageSize: PageSize,
		changes:  make(chan struct{}, 1),
	}
	unsubscribe, err := src.SubscribeSongs(ctx, c.replace)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return c, nil
}

// replace swaps in a new collection, keeping the query and clamping the page.
func (c *Controller) replace(songs []store.Song) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.songs = songs
	c.page = Clamp(c.page, TotalPages(len(Filter(c.songs, c.query)), c.pageSize))
	c.mu.Unlock()
	c.notify()
}

// SetQuery changes the search text and goes back to page 1.
func (c *Controller) SetQuery(query string) Page {
	c.mu.Lock()
	changed := query != c.query
	c.query = query
	if changed {
		c.page = 1
	}
	view := Paginate(c.songs, c.query, c.page, c.pageSize)
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return view
}

// GoTo moves to page, clamped into range.
func (c *Controller) GoTo(page int) Page {
	c.mu.Lock()
	view := Paginate(c.songs, c.query, page, c.pageSize)
	changed := view.Page != c.page
	c.page = view.Page
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return view
}

func (c *Controller) Next() Page {
	c.mu.RLock()
	page := c.page
	c.mu.RUnlock()
	return c.GoTo(page + 1)
}

func (c *Controller) Prev() Page {
	c.mu.RLock()
	page := c.page
	c.mu.RUnlock()
	return c.GoTo(page - 1)
}

// View renders the current page.
func (c *Controller) View() Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Paginate(c.songs, c.query, c.page, c.pageSize)
}

// Songs returns a copy of the whole unfiltered collection.
func (c *Controller) Songs() []store.Song {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]store.Song, 0, len(c.songs))
	for _, s := range c.songs {
		out = append(out, store.CloneSong(s))
	}
	return out
}

// Changes signals after the collection, query or page changed. Signals
// coalesce; receivers should read View after each one. The channel is
// closed by Close.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

func (c *Controller) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Close releases the subscription. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	close(c.changes)
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
