package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"setlist/internal/app/songs"
	"setlist/internal/store"
)

type singerStore interface {
	ListSingers(ctx context.Context) ([]store.Singer, error)
	CreateSinger(ctx context.Context, singer store.Singer) (store.Singer, error)
}

// bootstrapDemoData fills an empty database with a few songs and singers.
func bootstrapDemoData(ctx context.Context, songSvc *songs.Service, singers singerStore, logger zerolog.Logger) error {
	if err := ensureDemoSongs(ctx, songSvc); err != nil {
		return err
	}
	if err := ensureDemoSingers(ctx, singers); err != nil {
		return err
	}
	logger.Info().Msg("demo data ready")
	return nil
}

func ensureDemoSongs(ctx context.Context, songSvc *songs.Service) error {
	existing, err := songSvc.ListSongs(ctx)
	if err != nil {
		return fmt.Errorf("list songs: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	type seedSong struct {
		Title      string
		OrigSinger string
		Keys       []store.KeyAssignment
	}

	seeds := []seedSong{
		{Title: "Goodness of God", OrigSinger: "Bethel Music", Keys: []store.KeyAssignment{{Leader: "Joyce", Key: "A"}, {Leader: "Ivy", Key: "G"}}},
		{Title: "Way Maker", OrigSinger: "Sinach", Keys: []store.KeyAssignment{{Leader: "Zadrach", Key: "E"}}},
		{Title: "Build My Life", OrigSinger: "Housefires", Keys: []store.KeyAssignment{{Leader: "Shiela", Key: "C"}, {Leader: "Shiela", Key: "D"}}},
		{Title: "Oceans (Where Feet May Fail)", OrigSinger: "Hillsong United"},
		{Title: "What A Beautiful Name", OrigSinger: "Hillsong Worship", Keys: []store.KeyAssignment{{Leader: "Denise", Key: "D"}}},
		{Title: "Great Are You Lord", OrigSinger: "All Sons & Daughters"},
	}

	for _, seed := range seeds {
		song, err := songSvc.CreateSong(ctx, seed.Title, seed.OrigSinger)
		if err != nil {
			return fmt.Errorf("bootstrap song %q: %w", seed.Title, err)
		}
		for _, k := range seed.Keys {
			if song, err = songSvc.AddLeaderAndKey(ctx, song, k.Leader, k.Key); err != nil {
				return fmt.Errorf("bootstrap leader %q for %q: %w", k.Leader, seed.Title, err)
			}
		}
	}
	return nil
}

func ensureDemoSingers(ctx context.Context, singers singerStore) error {
	existing, err := singers.ListSingers(ctx)
	if err != nil {
		return fmt.Errorf("list singers: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	seeds := []store.Singer{
		{Name: "Joyce", Keys: map[string]string{"Goodness of God": "A"}},
		{Name: "Shiela", Keys: map[string]string{"Build My Life": "C"}},
		{Name: "Zadrach", Keys: map[string]string{"Way Maker": "E"}},
	}
	for _, seed := range seeds {
		if _, err := singers.CreateSinger(ctx, seed); err != nil {
			return fmt.Errorf("bootstrap singer %q: %w", seed.Name, err)
		}
	}
	return nil
}
