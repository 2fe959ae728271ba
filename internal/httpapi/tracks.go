package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"setlist/internal/app/tracks"
)

const maxTrackUpload = 64 << 20

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	list, err := s.tracks.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUploadTrack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTrackUpload)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := tracks.Upload{
		Title:     r.FormValue("title"),
		Type:      strings.TrimSpace(r.FormValue("type")),
		Category:  strings.TrimSpace(r.FormValue("category")),
		DriveLink: r.FormValue("driveLink"),
	}
	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD", Field: "date"})
			return
		}
		in.Date = date
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		in.File = file
		in.FileName = header.Filename
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid file upload", Field: "file"})
		return
	}

	track, err := s.tracks.Upload(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}
