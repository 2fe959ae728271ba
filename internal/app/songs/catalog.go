package songs

import "strings"

// MusicalKeys are the keys offered when assigning a leader to a song.
var MusicalKeys = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Catalog lists the choices offered to clients when adding details to a song.
type Catalog struct {
	Leaders []string `json:"worshipLeaders"`
	Keys    []string `json:"keys"`
}

// NewCatalog builds a Catalog from a leader roster, dropping blanks and
// repeated names while keeping roster order.
func NewCatalog(leaders []string) Catalog {
	seen := make(map[string]bool, len(leaders))
	roster := make([]string, 0, len(leaders))
	for _, l := range leaders {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		roster = append(roster, l)
	}
	keys := make([]string, len(MusicalKeys))
	copy(keys, MusicalKeys)
	return Catalog{Leaders: roster, Keys: keys}
}
