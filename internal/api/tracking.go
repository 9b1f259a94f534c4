package api

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// trackingPixel is a 1x1 transparent GIF
var trackingPixel, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// handlePixel handles GET /pixel/{token}. The pixel is returned
// unconditionally: mail clients must never see an error, and an unknown
// or already-opened token is not the client's problem.
func (s *Server) handlePixel(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if token != "" {
		if err := s.recipients.TrackOpen(token, time.Now()); err != nil {
			s.logger.Error("failed to record open", "token", token, "error", err)
		} else {
			s.metrics.OpensTotal.Inc()
		}
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(trackingPixel)
}

// handleClick handles GET /click/{token}?url=. The redirect always
// happens; a failed or duplicate tracking write must not strand the
// reader on an error page. On a write error the redirect goes to the
// base URL, not the untracked destination.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var trackErr error
	if token != "" {
		if trackErr = s.recipients.TrackClick(token, time.Now()); trackErr != nil {
			s.logger.Error("failed to record click", "token", token, "error", trackErr)
		} else {
			s.metrics.ClicksTotal.Inc()
		}
	}

	destination := r.URL.Query().Get("url")
	if destination == "" || trackErr != nil {
		destination = s.config.BaseURL
	}

	http.Redirect(w, r, destination, http.StatusFound)
}
