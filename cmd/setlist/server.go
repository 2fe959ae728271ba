package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"setlist/internal/app/auth"
	"setlist/internal/app/songs"
	"setlist/internal/app/tracks"
	"setlist/internal/chords"
	"setlist/internal/http/middleware"
	"setlist/internal/httpapi"
	"setlist/internal/listview"
)

// backend is whichever gateway STORE selected.
type backend interface {
	songs.Gateway
	tracks.Store
	httpapi.SingerLister
	singerStore
}

type handlerDeps struct {
	backend backend
	songs   *songs.Service
	feed    listview.Source
	live    *listview.Controller
	logger  zerolog.Logger
}

func newAuthService(cfg Config) (*auth.Service, error) {
	var (
		checker *auth.PINChecker
		err     error
	)
	if cfg.AuthPINHash != "" {
		checker, err = auth.NewPINCheckerFromHash(cfg.AuthPINHash)
	} else {
		checker, err = auth.NewPINChecker(cfg.AuthPIN)
	}
	if err != nil {
		return nil, fmt.Errorf("configure pin: %w", err)
	}
	return auth.New(checker, cfg.JWTSecret, cfg.SessionTTL)
}

func newHTTPHandler(cfg Config, deps handlerDeps) (http.Handler, error) {
	authSvc, err := newAuthService(cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := tracks.NewDiskBlobStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		return nil, err
	}
	trackSvc := tracks.New(deps.backend, blobs, deps.logger)

	api := httpapi.New(httpapi.Deps{
		Songs:   deps.songs,
		Tracks:  trackSvc,
		Auth:    authSvc,
		Chords:  chords.New(cfg.ChordsURL),
		Singers: deps.backend,
		Live:    deps.live,
		Feed:    deps.feed,
		Catalog: songs.NewCatalog(cfg.WorshipLeaders),
		Media:   http.FileServer(http.Dir(blobs.Root())),
		Logger:  deps.logger,
	})

	return middleware.Chain(api.Routes(),
		middleware.RequestLogging(deps.logger),
		middleware.Recovery(deps.logger),
		middleware.CORS(cfg.AllowedOrigins),
	), nil
}
