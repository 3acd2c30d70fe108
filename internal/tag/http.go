package tag

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Pamod0/task-track/internal/telemetry"
)

// Handler serves suggestion requests for the task form.
type Handler struct {
	suggester Suggester
	timeout   time.Duration
	events    telemetry.Repository
}

func NewHandler(suggester Suggester, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Handler{suggester: suggester, timeout: timeout}
}

func (h *Handler) SetEvents(events telemetry.Repository) {
	h.events = events
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// Suggest handles POST /api/tags/suggest. The client sends the current
// description and any already-accepted tags; the response is the
// filtered, capped suggestion list. Upstream failures or timeouts
// downgrade to an empty list, never an error status.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var in struct {
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(in.Description) < MinDescriptionLen {
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": []string{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	candidates, err := h.suggester.Suggest(ctx, in.Description)
	if err != nil {
		if h.events != nil {
			_ = h.events.RecordEvent(telemetry.EventSuggestionError, telemetry.EventMetadata{
				"error": err.Error(),
			})
		}
		candidates = nil
	}

	set := NewSetFrom(in.Tags)
	set.AddSuggestions(candidates)

	if h.events != nil && err == nil {
		_ = h.events.RecordEvent(telemetry.EventTagsSuggested, telemetry.EventMetadata{
			"count": len(set.Suggestions()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": set.Suggestions()})
}
