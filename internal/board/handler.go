package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/internal/schedule"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// WriteTokenHeader carries the client's token for a write so it can
// recognise the echo on its feed.
const WriteTokenHeader = "X-Write-Token"

// Exporter stores a board snapshot and returns where it went.
type Exporter interface {
	Export(ctx context.Context, owner string, list []*patients.Patient) (string, error)
}

// Handler serves the board API.
type Handler struct {
	svc      *Service
	exporter Exporter
	logger   *logging.Logger
}

// NewHandler creates a board handler. exporter may be nil.
func NewHandler(svc *Service, exporter Exporter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, exporter: exporter, logger: logger}
}

// RegisterRoutes mounts the board endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/patients", h.ListPatients)
	r.Post("/patients", h.RegisterPatient)
	r.Route("/patients/{id}", func(r chi.Router) {
		r.Get("/", h.GetPatient)
		r.Patch("/", h.UpdatePatient)
		r.Delete("/", h.DeletePatient)
		r.Get("/schedule", h.GetSchedule)
		r.Put("/weeks/{week}", h.SetAttendance)
		r.Delete("/weeks/{week}/reason", h.ClearReason)
		r.Post("/weeks/{week}/skip", h.ToggleSkip)
		r.Put("/herbal/{month}", h.SetHerbal)
	})
	r.Get("/stats", h.Stats)
	r.Post("/exports", h.Export)
}

// ListPatients handles GET /patients?status=&doctor=&q=.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := patients.Filter{Doctor: q.Get("doctor"), Query: q.Get("q")}
	if status := q.Get("status"); status != "" {
		f.Status = patients.ParseStatus(status)
	}
	result, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RegisterPatient handles POST /patients.
func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req patients.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Register(r.Context(), req, r.Header.Get(WriteTokenHeader))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPatient handles GET /patients/{id}.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePatient handles PATCH /patients/{id}.
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var patch patients.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch, r.Header.Get(WriteTokenHeader))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePatient handles DELETE /patients/{id}.
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), r.Header.Get(WriteTokenHeader)); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule handles GET /patients/{id}/schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Schedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type attendanceRequest struct {
	Mark   string  `json:"mark"`
	Reason *string `json:"reason,omitempty"`
}

// SetAttendance handles PUT /patients/{id}/weeks/{week}.
func (h *Handler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	week, ok := pathInt(w, r, "week")
	if !ok {
		return
	}
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mark, err := schedule.ParseMark(req.Mark)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.svc.SetAttendance(r.Context(), chi.URLParam(r, "id"), week, mark, req.Reason, r.Header.Get(WriteTokenHeader))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ClearReason handles DELETE /patients/{id}/weeks/{week}/reason.
func (h *Handler) ClearReason(w http.ResponseWriter, r *http.Request) {
	week, ok := pathInt(w, r, "week")
	if !ok {
		return
	}
	p, err := h.svc.ClearReason(r.Context(), chi.URLParam(r, "id"), week, r.Header.Get(WriteTokenHeader))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ToggleSkip handles POST /patients/{id}/weeks/{week}/skip.
func (h *Handler) ToggleSkip(w http.ResponseWriter, r *http.Request) {
	week, ok := pathInt(w, r, "week")
	if !ok {
		return
	}
	p, err := h.svc.ToggleSkip(r.Context(), chi.URLParam(r, "id"), week, r.Header.Get(WriteTokenHeader))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetHerbal handles PUT /patients/{id}/herbal/{month}.
func (h *Handler) SetHerbal(w http.ResponseWriter, r *http.Request) {
	month, ok := pathInt(w, r, "month")
	if !ok {
		return
	}
	var rec patients.HerbalRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := h.svc.SetHerbal(r.Context(), chi.URLParam(r, "id"), month, rec, r.Header.Get(WriteTokenHeader))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles POST /exports.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		http.Error(w, "exports not configured", http.StatusServiceUnavailable)
		return
	}
	list, err := h.svc.Snapshot(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	location, err := h.exporter.Export(r.Context(), h.svc.Owner(), list)
	if err != nil {
		h.logger.Error("board: export failed", "error", err)
		http.Error(w, "export failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"location": location, "patients": len(list)})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patients.ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case patients.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("board: request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
