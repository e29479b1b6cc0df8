package enrollments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-sis/meridian-sis/internal/authz"
	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
	"github.com/meridian-sis/meridian-sis/internal/shared"
)

// Handler serves enrollment endpoints.
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

// MountRoutes registers enrollment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gates.Require(authz.Spec{Permission: shared.PermViewEnrollments, ShowError: true}))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gates.Require(authz.Spec{Permission: shared.PermEditEnrollments, ShowError: true}))
		r.Post("/", h.enroll)
		r.Post("/{id}/drop", h.drop)
	})
	r.Group(func(r chi.Router) {
		spec := authz.CanGradeEnrollments()
		spec.ShowError = true
		r.Use(h.gates.Require(spec))
		r.Post("/{id}/grade", h.grade)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	pagination := shared.NewPagination(page, perPage, 0)

	filter := ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  pagination.PerPage,
		Offset: pagination.Offset(),
	}
	for param, dst := range map[string]*int64{
		"student_id":  &filter.StudentID,
		"course_id":   &filter.CourseID,
		"semester_id": &filter.SemesterID,
	} {
		if v := r.URL.Query().Get(param); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = id
			}
		}
	}

	list, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list enrollments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"enrollments": list,
		"pagination":  shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	enr, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, enr)
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	enr, err := h.service.Enroll(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, enr)
}

func (h *Handler) drop(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	enr, err := h.service.Drop(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, enr)
}

func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}

	var req GradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	enr, err := h.service.Grade(r.Context(), id, req.Grade)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, enr)
}
