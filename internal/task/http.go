package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Pamod0/task-track/internal/identity"
	"github.com/Pamod0/task-track/internal/telemetry"
)

type Handler struct {
	reconciler *Reconciler
	store      Store
	events     telemetry.Repository
}

func NewHandler(reconciler *Reconciler, store Store) *Handler {
	return &Handler{reconciler: reconciler, store: store}
}

// SetEvents wires the telemetry log. Optional.
func (h *Handler) SetEvents(events telemetry.Repository) {
	h.events = events
}

func (h *Handler) record(t telemetry.EventType, md telemetry.EventMetadata) {
	if h.events != nil {
		_ = h.events.RecordEvent(t, md)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeReconcileErr(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, ErrPermissionDenied):
		writeErr(w, http.StatusForbidden, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// Tasks handles /api/tasks (GET list own, POST create).
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.ProfileFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		recs, err := h.store.ListByOwner(r.Context(), session.ID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, recs)

	case http.MethodPost:
		var in FormInput
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}

		op, err := h.reconciler.Reconcile(in, session, nil)
		if err != nil {
			writeReconcileErr(w, err)
			return
		}

		rec, err := Apply(r.Context(), h.store, op)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		h.record(telemetry.EventTaskCreated, telemetry.EventMetadata{
			"taskId": rec.ID, "ownerId": rec.OwnerID, "period": rec.Period,
		})
		writeJSON(w, http.StatusCreated, map[string]any{
			"task":      rec,
			"resetForm": op.ResetForm,
		})

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// TasksSub handles /api/tasks/{id} (GET, PUT).
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.ProfileFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tail := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	tail = strings.Trim(tail, "/")
	if tail == "" || strings.Contains(tail, "/") {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	id := tail

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		if existing.OwnerID != session.ID && !session.IsAdmin() {
			writeErr(w, http.StatusForbidden, "not the record owner")
			return
		}
		writeJSON(w, http.StatusOK, existing)

	case http.MethodPut:
		var in FormInput
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}

		op, err := h.reconciler.Reconcile(in, session, &existing)
		if err != nil {
			writeReconcileErr(w, err)
			return
		}

		rec, err := Apply(r.Context(), h.store, op)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		h.record(telemetry.EventTaskUpdated, telemetry.EventMetadata{
			"taskId": rec.ID, "ownerId": rec.OwnerID, "period": rec.Period,
		})
		writeJSON(w, http.StatusOK, rec)

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// AdminTasks handles /api/admin/tasks (GET, all users' records).
// Role enforcement happens in the identity middleware.
func (h *Handler) AdminTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	recs, err := h.store.ListAll(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
