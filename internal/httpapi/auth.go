package httpapi

import (
	"net/http"

	"setlist/internal/app/auth"
)

type loginRequest struct {
	PIN string `json:"pin" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	token, err := s.auth.Login(r.Context(), req.PIN)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrUnauthorized.Error()})
		return
	}
	writeJSON(w, http.StatusOK, session)
}
