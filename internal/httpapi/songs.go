package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"setlist/internal/dashboard"
	"setlist/internal/listview"
	"setlist/internal/store"
)

type createSongRequest struct {
	Title      string `json:"title" validate:"required"`
	OrigSinger string `json:"origSinger" validate:"required"`
}

type addLeaderRequest struct {
	Leader string `json:"leader" validate:"required"`
	Key    string `json:"key" validate:"required"`
}

// currentSongs prefers the live snapshot and falls back to a direct read.
func (s *Server) currentSongs(ctx context.Context) ([]store.Song, error) {
	if s.live != nil {
		return s.live.Songs(), nil
	}
	return s.songs.ListSongs(ctx)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return page
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	all, err := s.currentSongs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listview.Paginate(all, r.URL.Query().Get("q"), pageParam(r), listview.PageSize))
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	var req createSongRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	song, err := s.songs.CreateSong(r.Context(), req.Title, req.OrigSinger)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.songs.GetSong(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	if err := s.songs.DeleteSong(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLeader(w http.ResponseWriter, r *http.Request) {
	var req addLeaderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	song, err := s.songs.GetSong(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	updated, err := s.songs.AddLeaderAndKey(r.Context(), song, req.Leader, req.Key)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRemoveLeader(w http.ResponseWriter, r *http.Request) {
	song, err := s.songs.GetSong(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	updated, err := s.songs.RemoveLeader(r.Context(), song, r.PathValue("leader"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	all, err := s.currentSongs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Summarize(all, s.now()))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}
