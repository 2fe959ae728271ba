package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"setlist/internal/app/songs"
	"setlist/internal/listview"
	"setlist/internal/logging"
	"setlist/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("setlist stopped")
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		gateway backend
		feed    listview.Source
	)
	switch cfg.Store {
	case storeMemory:
		mem := store.NewMemory()
		gateway, feed = mem, mem
		logger.Warn().Msg("using in-memory store, data is lost on restart")
	default:
		db, err := openDatabase(ctx, cfg.DatabaseURL, cfg.DBPool, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		pg := store.New(db)
		songFeed := store.NewFeed(cfg.DatabaseURL, pg, cfg.GatewayTimeout, logger)
		go func() {
			if err := songFeed.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("song feed stopped")
			}
		}()
		gateway, feed = pg, songFeed
	}

	songSvc := songs.New(gateway, songs.Options{
		AllowDuplicateLeaders: cfg.AllowDuplicateLeaders,
		Timeout:               cfg.GatewayTimeout,
		Logger:                &logger,
	})

	if cfg.SeedDemo {
		if err := bootstrapDemoData(ctx, songSvc, gateway, logger); err != nil {
			return err
		}
	}

	live, err := listview.Open(ctx, feed)
	if err != nil {
		return err
	}
	defer live.Close()

	handler, err := newHTTPHandler(cfg, handlerDeps{
		backend: gateway,
		songs:   songSvc,
		feed:    feed,
		live:    live,
		logger:  logger,
	})
	if err != nil {
		return err
	}

	// No WriteTimeout: the song stream holds responses open.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("store", cfg.Store).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
