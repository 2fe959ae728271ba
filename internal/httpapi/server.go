package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"setlist/internal/app/auth"
	"setlist/internal/app/songs"
	"setlist/internal/app/tracks"
	"setlist/internal/http/middleware"
	"setlist/internal/listview"
	"setlist/internal/logging"
	"setlist/internal/store"
)

// SongService captures the song workflows needed by the HTTP handlers.
type SongService interface {
	ListSongs(ctx context.Context) ([]store.Song, error)
	GetSong(ctx context.Context, id string) (store.Song, error)
	CreateSong(ctx context.Context, title, origSinger string) (store.Song, error)
	UploadSong(ctx context.Context, title, origSinger, leader, key string) (store.Song, error)
	AddLeaderAndKey(ctx context.Context, song store.Song, leader, key string) (store.Song, error)
	RemoveLeader(ctx context.Context, song store.Song, leader string) (store.Song, error)
	DeleteSong(ctx context.Context, id string) error
}

// TrackService exposes the track library.
type TrackService interface {
	List(ctx context.Context, category string) ([]store.Track, error)
	Upload(ctx context.Context, in tracks.Upload) (store.Track, error)
}

// AuthService issues and checks session tokens.
type AuthService interface {
	Login(ctx context.Context, pin string) (auth.Token, error)
	Verify(token string) (auth.Session, error)
}

// ChordFetcher scrapes the chord listing.
type ChordFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// SingerLister reads the singers collection.
type SingerLister interface {
	ListSingers(ctx context.Context) ([]store.Singer, error)
}

// LiveSongs is a continuously updated copy of the song collection.
type LiveSongs interface {
	Songs() []store.Song
}

// Deps lists everything the Server needs. Media is optional.
type Deps struct {
	Songs   SongService
	Tracks  TrackService
	Auth    AuthService
	Chords  ChordFetcher
	Singers SingerLister
	Live    LiveSongs
	Feed    listview.Source
	Catalog songs.Catalog
	Media   http.Handler
	Logger  zerolog.Logger
	// StreamHeartbeat defaults to 25 seconds.
	StreamHeartbeat time.Duration
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	songs     SongService
	tracks    TrackService
	auth      AuthService
	chords    ChordFetcher
	singers   SingerLister
	live      LiveSongs
	feed      listview.Source
	catalog   songs.Catalog
	media     http.Handler
	logger    zerolog.Logger
	validate  *validator.Validate
	heartbeat time.Duration
	now       func() time.Time
}

// New configures a Server.
func New(deps Deps) *Server {
	heartbeat := deps.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Server{
		songs:     deps.Songs,
		tracks:    deps.Tracks,
		auth:      deps.Auth,
		chords:    deps.Chords,
		singers:   deps.Singers,
		live:      deps.Live,
		feed:      deps.Feed,
		catalog:   deps.Catalog,
		media:     deps.Media,
		logger:    deps.Logger,
		validate:  newValidator(),
		heartbeat: heartbeat,
		now:       time.Now,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	session := middleware.RequireSession(s.auth)
	protected := func(h http.HandlerFunc) http.Handler { return session(h) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.Handle("GET /api/v1/auth/session", protected(s.handleSession))

	mux.Handle("GET /api/v1/songs", protected(s.handleListSongs))
	mux.Handle("POST /api/v1/songs", protected(s.handleCreateSong))
	mux.Handle("GET /api/v1/songs/stream", protected(s.handleSongStream))
	mux.Handle("GET /api/v1/songs/{id}", protected(s.handleGetSong))
	mux.Handle("DELETE /api/v1/songs/{id}", protected(s.handleDeleteSong))
	mux.Handle("POST /api/v1/songs/{id}/leaders", protected(s.handleAddLeader))
	mux.Handle("DELETE /api/v1/songs/{id}/leaders/{leader}", protected(s.handleRemoveLeader))

	mux.Handle("GET /api/v1/dashboard", protected(s.handleDashboard))
	mux.Handle("GET /api/v1/catalog", protected(s.handleCatalog))

	mux.Handle("GET /api/v1/tracks", protected(s.handleListTracks))
	mux.Handle("POST /api/v1/tracks", protected(s.handleUploadTrack))

	if s.media != nil {
		mux.Handle("GET /media/", http.StripPrefix("/media/", s.media))
	}

	// Legacy routes kept for the existing web client.
	mux.HandleFunc("POST /api/upload-song", s.handleLegacyUploadSong)
	mux.HandleFunc("GET /api/songs", s.handleLegacySongs)
	mux.HandleFunc("GET /api/singer-keys", s.handleLegacySingerKeys)
	mux.HandleFunc("GET /api/getChords", s.handleLegacyChords)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func (s *Server) requestLogger(r *http.Request) zerolog.Logger {
	return logging.FromContext(r.Context(), s.logger)
}

// decodeJSON reads a JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return false
	}
	trimStrings(dst)
	if err := s.validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fe.Field() + " is required"
		if fe.Tag() != "required" {
			msg = fe.Field() + " is invalid"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Field: fe.Field()})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// trimStrings trims every exported string field of a struct pointer.
func trimStrings(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}

// writeServiceError maps service errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *songs.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, store.ErrSongNotFound), errors.Is(err, store.ErrTrackNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, tracks.ErrInvalidTrack):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, tracks.ErrDuplicateTrack):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		logger := s.requestLogger(r)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
