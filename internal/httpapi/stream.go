package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"setlist/internal/listview"
)

// handleSongStream pushes the requested list view page as server-sent
// events whenever the song collection changes. Each connection owns one
// controller, released when the client goes away.
func (s *Server) handleSongStream(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "live updates unavailable"})
		return
	}
	logger := s.requestLogger(r)

	ctrl, err := listview.Open(r.Context(), s.feed)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer ctrl.Close()

	ctrl.SetQuery(r.URL.Query().Get("q"))
	ctrl.GoTo(pageParam(r))

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(page listview.Page) error {
		body, err := json.Marshal(page)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: page\ndata: %s\n\n", body); err != nil {
			return err
		}
		return rc.Flush()
	}

	// The first send already covers changes queued while the view was set up.
	select {
	case <-ctrl.Changes():
	default:
	}
	if err := send(ctrl.View()); err != nil {
		logger.Debug().Err(err).Msg("song stream closed")
		return
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-ctrl.Changes():
			if !ok {
				return
			}
			if err := send(ctrl.View()); err != nil {
				logger.Debug().Err(err).Msg("song stream closed")
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
