// Package listview filters and paginates the live song collection.
package listview

import (
	"strings"

	"setlist/internal/store"
)

// PageSize is the number of songs shown per page.
const PageSize = 12

// Page is one rendered page of the filtered collection.
type Page struct {
	Songs      []store.Song `json:"songs"`
	Query      string       `json:"query"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	StartIndex int          `json:"startIndex"`
	EndIndex   int          `json:"endIndex"`
	First      int          `json:"first"`
	Last       int          `json:"last"`
	Total      int          `json:"total"`
}

// Filter keeps songs whose title or original singer contains the query,
// ignoring case. An empty query keeps everything.
func Filter(songs []store.Song, query string) []store.Song {
	q := strings.ToLower(query)
	out := make([]store.Song, 0, len(songs))
	for _, s := range songs {
		if q == "" ||
			strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.OrigSinger), q) {
			out = append(out, s)
		}
	}
	return out
}

// TotalPages is never less than one.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// Clamp pins page into [1, totalPages].
func Clamp(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate filters songs by query and cuts out the requested page. Out of
// range pages are clamped.
func Paginate(songs []store.Song, query string, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	filtered := Filter(songs, query)
	total := len(filtered)
	pages := TotalPages(total, pageSize)
	page = Clamp(page, pages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	if start > total {
		start = total
	}

	p := Page{
		Songs:      make([]store.Song, 0, end-start),
		Query:      query,
		Page:       page,
		TotalPages: pages,
		StartIndex: start,
		EndIndex:   end,
		Total:      total,
	}
	for _, s := range filtered[start:end] {
		p.Songs = append(p.Songs, store.CloneSong(s))
	}
	if total > 0 {
		p.First = start + 1
		p.Last = end
	}
	return p
}
