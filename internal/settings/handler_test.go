package settings

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/meridian-sis/internal/authz"
	"github.com/meridian-sis/meridian-sis/internal/shared"
)

type grantFetcher struct {
	perms map[string][]string
	roles map[string][]string
}

func (f *grantFetcher) FetchGrants(_ context.Context, token string) ([]string, []string, error) {
	return f.perms[token], f.roles[token], nil
}

func testSession(t *testing.T, userID string) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser(userID)
	return sess
}

func doRequest(router http.Handler, method, target, body string, sess *shared.Session) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestSettingWritesRequireAdministrator(t *testing.T) {
	fetcher := &grantFetcher{
		perms: map[string][]string{
			"1": {shared.PermViewSettings, shared.PermEditSettings},
			"2": {shared.PermViewSettings, shared.PermEditSettings},
		},
		roles: map[string][]string{
			"1": {shared.RoleRegistrar},
			"2": {shared.RoleAdmin},
		},
	}
	gates := authz.NewManager(fetcher)
	defer gates.Close()

	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), newCountingRepo(), nil)
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, validator.New(), gates)
	router := chi.NewRouter()
	router.Route("/settings", handler.MountRoutes)

	// Holding edit_settings is not enough without the ADMIN role.
	res := doRequest(router, http.MethodPut, "/settings/grading.scale", `{"value":"letter"}`, testSession(t, "1"))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Administrator access is required")

	res = doRequest(router, http.MethodPut, "/settings/grading.scale", `{"value":"letter"}`, testSession(t, "2"))
	assert.Equal(t, http.StatusOK, res.Code)

	// Reads stay permission-gated and open to non-admins.
	res = doRequest(router, http.MethodGet, "/settings/grading.scale", "", testSession(t, "1"))
	assert.Equal(t, http.StatusOK, res.Code)
}
