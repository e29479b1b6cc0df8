package authz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/meridian-sis/internal/authz"
	"github.com/meridian-sis/meridian-sis/internal/shared"
)

type mapFetcher struct {
	mu    sync.Mutex
	perms map[string][]string
	roles map[string][]string
	err   error
}

func (f *mapFetcher) FetchGrants(ctx context.Context, token string) ([]string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.perms[token], f.roles[token], nil
}

func newTestSession(t *testing.T, userID string) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return sess
}

func serveGated(t *testing.T, m *authz.Manager, spec authz.Spec, sess *shared.Session) *httptest.ResponseRecorder {
	t.Helper()
	handler := m.Require(spec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The snapshot must be available to the protected handler.
		if authz.SnapshotFromContext(r.Context()) == nil {
			t.Error("snapshot missing from request context")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRequireAllowsGrantedPermission(t *testing.T) {
	fetcher := &mapFetcher{
		perms: map[string][]string{"7": {shared.PermCreateCourses}},
		roles: map[string][]string{"7": {shared.RoleFaculty}},
	}
	m := authz.NewManager(fetcher)
	defer m.Close()
	sess := newTestSession(t, "7")

	res := serveGated(t, m, authz.CanCreateCourses(), sess)
	assert.Equal(t, http.StatusOK, res.Code)

	res = serveGated(t, m, authz.AdminOnly(), sess)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireDeniesWithoutSession(t *testing.T) {
	m := authz.NewManager(&mapFetcher{})
	defer m.Close()

	res := serveGated(t, m, authz.Spec{Permission: shared.PermViewCourses}, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireDeniesUnauthenticatedSession(t *testing.T) {
	fetcher := &mapFetcher{}
	m := authz.NewManager(fetcher)
	defer m.Close()
	sess := newTestSession(t, "")

	res := serveGated(t, m, authz.Spec{Permission: shared.PermViewCourses}, sess)
	assert.Equal(t, http.StatusForbidden, res.Code)

	// A spec with no conditions still allows an authenticated-empty subject.
	res = serveGated(t, m, authz.Spec{}, sess)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireShowErrorRendersDenialMessage(t *testing.T) {
	m := authz.NewManager(&mapFetcher{})
	defer m.Close()
	sess := newTestSession(t, "7")

	spec := authz.Spec{
		Role:         shared.RoleAdmin,
		ShowError:    true,
		ErrorMessage: "Administrator access is required.",
	}
	res := serveGated(t, m, spec, sess)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Administrator access is required.")

	// Without ShowError the body carries no configured message.
	res = serveGated(t, m, authz.Spec{Role: shared.RoleAdmin}, sess)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.NotContains(t, res.Body.String(), "Administrator access is required.")
}

func TestRequireFailsClosedOnFetchError(t *testing.T) {
	fetcher := &mapFetcher{err: assert.AnError}
	m := authz.NewManager(fetcher)
	defer m.Close()
	sess := newTestSession(t, "7")

	res := serveGated(t, m, authz.Spec{Permission: shared.PermViewCourses, ShowError: true}, sess)
	assert.Equal(t, http.StatusForbidden, res.Code)
	// The underlying error detail is not exposed to the end user.
	assert.NotContains(t, res.Body.String(), assert.AnError.Error())
}

func TestRefreshForPicksUpGrantChanges(t *testing.T) {
	fetcher := &mapFetcher{
		roles: map[string][]string{"7": {shared.RoleFaculty}},
	}
	m := authz.NewManager(fetcher)
	defer m.Close()
	sess := newTestSession(t, "7")

	res := serveGated(t, m, authz.FacultyOrAdmin(), sess)
	require.Equal(t, http.StatusOK, res.Code)

	// Revoke the role server-side, then refresh.
	fetcher.mu.Lock()
	fetcher.roles["7"] = nil
	fetcher.mu.Unlock()
	snap := m.RefreshFor(context.Background(), sess)
	assert.False(t, snap.HasRole(shared.RoleFaculty))

	res = serveGated(t, m, authz.FacultyOrAdmin(), sess)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestDisposeDropsStore(t *testing.T) {
	fetcher := &mapFetcher{
		roles: map[string][]string{"7": {shared.RoleAdmin}},
	}
	m := authz.NewManager(fetcher)
	defer m.Close()
	sess := newTestSession(t, "7")

	res := serveGated(t, m, authz.AdminOnly(), sess)
	require.Equal(t, http.StatusOK, res.Code)

	m.Dispose(sess.ID)

	// A fresh store is built on the next request and reloads from scratch.
	res = serveGated(t, m, authz.AdminOnly(), sess)
	assert.Equal(t, http.StatusOK, res.Code)
}
