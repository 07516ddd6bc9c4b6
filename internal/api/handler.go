package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shallweswim/backend-go/internal/conditions"
)

// Handler is the thin JSON shim over the conditions service. Rendering and
// presentation live outside this repo; these endpoints exist so the pipeline
// is runnable and observable on its own.
type Handler struct {
	service conditions.API
}

func NewHandler(service conditions.API) *Handler {
	return &Handler{service: service}
}

// Routes returns the HTTP mux for the pipeline endpoints.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/conditions", h.handleConditions)
	mux.HandleFunc("/api/tides", h.handleTides)
	mux.HandleFunc("/api/freshness", h.handleFreshness)
	return mux
}

type ErrorResponse struct {
	ResponseType string `json:"responseType"`
	Error        string `json:"error"`
}

func (h *Handler) handleConditions(w http.ResponseWriter, r *http.Request) {
	locationID := r.URL.Query().Get("location")
	if locationID == "" {
		writeError(w, "missing location parameter", http.StatusBadRequest)
		return
	}

	at, err := parseAt(r)
	if err != nil {
		writeError(w, "invalid at parameter, want RFC3339", http.StatusBadRequest)
		return
	}

	snapshot, err := h.service.GetConditions(r.Context(), locationID, at)
	if err != nil {
		if errors.Is(err, conditions.ErrUnknownLocation) {
			writeError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("location", locationID).Msg("Conditions request failed")
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, snapshot)
}

func (h *Handler) handleTides(w http.ResponseWriter, r *http.Request) {
	locationID := r.URL.Query().Get("location")
	if locationID == "" {
		writeError(w, "missing location parameter", http.StatusBadRequest)
		return
	}

	at, err := parseAt(r)
	if err != nil {
		writeError(w, "invalid at parameter, want RFC3339", http.StatusBadRequest)
		return
	}

	table, err := h.service.GetTideTable(r.Context(), locationID, at)
	if err != nil {
		switch {
		case errors.Is(err, conditions.ErrUnknownLocation), errors.Is(err, conditions.ErrNoTideStation):
			writeError(w, err.Error(), http.StatusNotFound)
		default:
			log.Error().Err(err).Str("location", locationID).Msg("Tide table request failed")
			writeError(w, "tide data unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	writeJSON(w, table)
}

func (h *Handler) handleFreshness(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Freshness(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Freshness request failed")
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func parseAt(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Encoding response")
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := ErrorResponse{ResponseType: "error", Error: message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Encoding error response")
	}
}
