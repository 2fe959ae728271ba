package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Singer lists the key a singer uses for each song title.
type Singer struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Keys map[string]string `json:"keys"`
}

const listSingersQuery = `
		SELECT id, name, keys
		FROM singers
		ORDER BY name ASC`

const createSingerQuery = `
		INSERT INTO singers (id, name, keys)
		VALUES ($1, $2, $3::jsonb)`

// ListSingers returns every entry of the singers collection.
func (s *Store) ListSingers(ctx context.Context) ([]Singer, error) {
	rows, err := s.db.QueryContext(ctx, listSingersQuery)
	if err != nil {
		return nil, fmt.Errorf("query singers: %w", err)
	}
	defer rows.Close()

	singers := []Singer{}
	for rows.Next() {
		var (
			singer Singer
			raw    []byte
		)
		if err := rows.Scan(&singer.ID, &singer.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan singer: %w", err)
		}
		singer.Keys = map[string]string{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &singer.Keys); err != nil {
				return nil, fmt.Errorf("decode keys for singer %s: %w", singer.ID, err)
			}
		}
		singers = append(singers, singer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate singers: %w", err)
	}
	return singers, nil
}

// CreateSinger adds a singer entry, assigning an id when missing.
func (s *Store) CreateSinger(ctx context.Context, singer Singer) (Singer, error) {
	if singer.ID == "" {
		singer.ID = uuid.NewString()
	}
	if singer.Keys == nil {
		singer.Keys = map[string]string{}
	}
	raw, err := json.Marshal(singer.Keys)
	if err != nil {
		return Singer{}, fmt.Errorf("encode singer keys: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createSingerQuery, singer.ID, singer.Name, string(raw)); err != nil {
		return Singer{}, fmt.Errorf("insert singer: %w", err)
	}
	return singer, nil
}
