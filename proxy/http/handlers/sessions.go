package handlers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wiretap-proxy/wiretap/internal/api"
	"github.com/wiretap-proxy/wiretap/internal/logging"
	"github.com/wiretap-proxy/wiretap/internal/session"
	"github.com/wiretap-proxy/wiretap/proxy/registry"
)

// NewSessionsHandler returns the handler for GET /api/sessions,
// listing a summary of every registered relay session
func NewSessionsHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := reg.List()

		summaries := make([]api.SessionSummary, 0, len(sessions))
		for _, s := range sessions {
			summaries = append(summaries, summarize(s))
		}

		writeJSON(w, r, http.StatusOK, summaries)
	}
}

// NewCaptureHandler returns the handler for
// GET /api/sessions/{id}/capture, dumping one session's capture log
func NewCaptureHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		s, err := reg.Get(id)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}

		records := s.Records()
		resp := api.CaptureResponse{
			SessionID:   s.ID(),
			DisplayName: s.DisplayName(),
			Records:     make([]api.CaptureRecord, 0, len(records)),
		}
		for _, rec := range records {
			resp.Records = append(resp.Records, api.CaptureRecord{
				Offset:    rec.Offset.String(),
				Direction: rec.Direction.String(),
				Size:      len(rec.Payload),
				Payload:   hex.EncodeToString(rec.Payload),
			})
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}

// NewRemoveSessionHandler returns the handler for
// DELETE /api/sessions/{id}, dropping an ended session from the
// registry. Live sessions cannot be removed.
func NewRemoveSessionHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		s, err := reg.Get(id)
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if s.IsConnected() {
			http.Error(w, "session is still connected", http.StatusConflict)
			return
		}

		reg.Remove(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func summarize(s *session.Session) api.SessionSummary {
	return api.SessionSummary{
		ID:          s.ID(),
		DisplayName: s.DisplayName(),
		StartedAt:   s.StartTime(),
		Connected:   s.IsConnected(),
		RecordCount: s.RecordCount(),
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.FromContext(r.Context()).Error("Failed to marshal response", logging.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
