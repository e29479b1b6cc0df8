package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-sis/meridian-sis/internal/authz"
	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
	"github.com/meridian-sis/meridian-sis/internal/shared"
)

// Handler serves session endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	validate *validator.Validate
	gates    *authz.Manager
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, validate *validator.Validate, gates *authz.Manager) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions, csrf: csrf, validate: validate, gates: gates}
}

// MountRoutes registers session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.csrfToken)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
	r.Post("/refresh-grants", h.refreshGrants)
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	token, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	UserID      int64    `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
	GrantStatus string   `json:"grant_status"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	sess.SetUser(strconv.FormatInt(user.ID, 10))
	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Error("register session", slog.Any("error", err))
	}

	// Loading the grants here means the first gated request after login
	// never observes a pending store.
	snap := h.gates.RefreshFor(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Permissions: snap.Permissions(),
		Roles:       snap.Roles(),
		GrantStatus: snap.Status().String(),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
		h.logger.Error("remove session", slog.Any("error", err))
	}
	h.gates.Dispose(sess.ID)
	h.sessions.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	store := h.gates.StoreFor(r.Context(), sess)
	snap, _ := store.WaitReady(r.Context())
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:      userID,
		Permissions: snap.Permissions(),
		Roles:       snap.Roles(),
		GrantStatus: snap.Status().String(),
	})
}

// refreshGrants reloads the caller's grant snapshot, for use after an admin
// edits roles or permissions server-side.
func (h *Handler) refreshGrants(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	snap := h.gates.RefreshFor(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"permissions":  snap.Permissions(),
		"roles":        snap.Roles(),
		"grant_status": snap.Status().String(),
	})
}
