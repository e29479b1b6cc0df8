package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-sis/meridian-sis/internal/authz"
	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
	"github.com/meridian-sis/meridian-sis/internal/shared"
)

// Handler serves reporting endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	gates    *authz.Manager
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, gates *authz.Manager) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, gates: gates}
}

type snapshotRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=enrollment_summary headcount"`
	SemesterID *int64 `json:"semester_id,omitempty" validate:"omitempty,gt=0"`
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gates.Require(authz.Spec{Permission: shared.PermViewReports, ShowError: true}))
		r.Get("/enrollment-summary", h.enrollmentSummary)
		r.Get("/headcount", h.headcount)
		r.Get("/snapshots/{id}", h.getSnapshot)

		r.Group(func(r chi.Router) {
			// Snapshot builds are requested by faculty and administrators.
			spec := authz.FacultyOrAdmin()
			spec.ShowError = true
			r.Use(h.gates.Require(spec))
			r.Post("/snapshots", h.requestSnapshot)
		})
	})
}

func (h *Handler) enrollmentSummary(w http.ResponseWriter, r *http.Request) {
	semesterID, err := strconv.ParseInt(r.URL.Query().Get("semester_id"), 10, 64)
	if err != nil || semesterID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "semester_id is required")
		return
	}

	summary, err := h.service.EnrollmentSummary(r.Context(), semesterID)
	if err != nil {
		h.logger.Error("enrollment summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) headcount(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Headcount(r.Context())
	if err != nil {
		h.logger.Error("headcount report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"departments": rows})
}

func (h *Handler) requestSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	snap, err := h.service.RequestSnapshot(r.Context(), req.Kind, req.SemesterID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, snap)
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	snap, err := h.service.GetSnapshot(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}
