package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"setlist/internal/store"
)

type legacyUploadRequest struct {
	Title         string `json:"title"`
	OrigSinger    string `json:"origSinger"`
	WorshipLeader string `json:"worshipLeader"`
	Key           string `json:"key"`
}

// handleLegacyUploadSong creates a song and assigns its first leader and key.
func (s *Server) handleLegacyUploadSong(w http.ResponseWriter, r *http.Request) {
	var req legacyUploadRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "All fields are required"})
		return
	}
	trimStrings(&req)
	if req.Title == "" || req.OrigSinger == "" || req.WorshipLeader == "" || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "All fields are required"})
		return
	}

	logger := s.requestLogger(r)
	song, err := s.songs.UploadSong(r.Context(), req.Title, req.OrigSinger, req.WorshipLeader, req.Key)
	if err != nil {
		logger.Error().Err(err).Msg("Error uploading song")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to upload song"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string     `json:"message"`
		Song    store.Song `json:"song"`
	}{Message: "Song uploaded successfully", Song: song})
}

func (s *Server) handleLegacySongs(w http.ResponseWriter, r *http.Request) {
	all, err := s.songs.ListSongs(r.Context())
	if err != nil {
		logger := s.requestLogger(r)
		logger.Error().Err(err).Msg("Error fetching songs")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch songs"})
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleLegacySingerKeys(w http.ResponseWriter, r *http.Request) {
	singers, err := s.singers.ListSingers(r.Context())
	if err != nil {
		logger := s.requestLogger(r)
		logger.Error().Err(err).Msg("Error fetching singers")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch singers"})
		return
	}
	writeJSON(w, http.StatusOK, singers)
}

func (s *Server) handleLegacyChords(w http.ResponseWriter, r *http.Request) {
	chords, err := s.chords.Fetch(r.Context())
	if err != nil {
		logger := s.requestLogger(r)
		logger.Error().Err(err).Msg("Error in getChords")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch chords"})
		return
	}
	chords = strings.TrimSpace(chords)
	writeJSON(w, http.StatusOK, map[string]string{"chords": chords})
}
