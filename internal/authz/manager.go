package authz

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
	"github.com/meridian-sis/meridian-sis/internal/shared"
)

// DecisionRecorder receives every gate decision for operator visibility.
type DecisionRecorder interface {
	RecordDecision(decision Decision)
}

// TokenFunc extracts the fetch credential from a session. The default uses
// the session's user ID, which both the DB-backed and HTTP fetchers accept.
type TokenFunc func(sess *shared.Session) string

// Manager maintains one grant store per active session and exposes the gate
// as chi-compatible middleware. Stores are created lazily on first use and
// disposed on logout.
type Manager struct {
	fetcher   Fetcher
	logger    *slog.Logger
	recorder  DecisionRecorder
	checker   ResourceChecker
	tokenFor  TokenFunc
	storeOpts []StoreOption

	mu      sync.Mutex
	entries map[string]*managerEntry
	closed  bool
}

type managerEntry struct {
	feed  *SessionFeed
	store *Store
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger attaches a logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithDecisionRecorder attaches a metrics recorder for gate decisions.
func WithDecisionRecorder(rec DecisionRecorder) ManagerOption {
	return func(m *Manager) { m.recorder = rec }
}

// WithResourceChecker installs the resource-instance scoping extension.
func WithResourceChecker(checker ResourceChecker) ManagerOption {
	return func(m *Manager) { m.checker = checker }
}

// WithTokenFunc overrides credential extraction.
func WithTokenFunc(fn TokenFunc) ManagerOption {
	return func(m *Manager) { m.tokenFor = fn }
}

// WithStoreOptions passes options through to every created store.
func WithStoreOptions(opts ...StoreOption) ManagerOption {
	return func(m *Manager) { m.storeOpts = opts }
}

// NewManager constructs a Manager over the given grant fetcher.
func NewManager(fetcher Fetcher, opts ...ManagerOption) *Manager {
	m := &Manager{
		fetcher: fetcher,
		tokenFor: func(sess *shared.Session) string {
			return sess.User()
		},
		entries: make(map[string]*managerEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StoreFor returns the grant store for the session, creating it on first
// use and pushing the session's current state into its feed. A state change
// (login, logout, user switch) reloads the store before this returns.
func (m *Manager) StoreFor(ctx context.Context, sess *shared.Session) *Store {
	state := SessionState{
		Authenticated: sess.User() != "",
		Token:         m.tokenFor(sess),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		store := NewStore(m.fetcher, m.storeOpts...)
		store.Init(ctx, NewSessionFeed(state))
		return store
	}
	entry, ok := m.entries[sess.ID]
	if !ok {
		entry = &managerEntry{
			feed:  NewSessionFeed(state),
			store: NewStore(m.fetcher, m.storeOpts...),
		}
		m.entries[sess.ID] = entry
		m.mu.Unlock()
		entry.store.Init(ctx, entry.feed)
		return entry.store
	}
	m.mu.Unlock()

	entry.feed.Set(state)
	return entry.store
}

// Dispose closes and forgets the store bound to the session ID. Called on
// logout and session expiry.
func (m *Manager) Dispose(sessionID string) {
	m.mu.Lock()
	entry, ok := m.entries[sessionID]
	delete(m.entries, sessionID)
	m.mu.Unlock()
	if ok {
		entry.store.Close()
	}
}

// Close disposes every store.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*managerEntry)
	m.closed = true
	m.mu.Unlock()
	for _, entry := range entries {
		entry.store.Close()
	}
}

// Require returns middleware enforcing the gate specification. The decision
// maps onto HTTP as: Pending waits for readiness bounded by the request
// context (503 when the wait is cut short), Allow runs the handler with the
// snapshot attached to the context, Deny responds 403 — with the spec's
// denial message only when ShowError is set.
func (m *Manager) Require(spec Spec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}

			store := m.StoreFor(r.Context(), sess)
			snap, err := store.WaitReady(r.Context())
			if err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Authorization Pending", "")
				return
			}

			decision := AuthorizeChecked(spec, snap, m.checker)
			if m.recorder != nil {
				m.recorder.RecordDecision(decision)
			}
			switch decision {
			case DecisionAllow:
				ctx := ContextWithSnapshot(r.Context(), snap)
				next.ServeHTTP(w, r.WithContext(ctx))
			case DecisionPending:
				httpx.Problem(w, http.StatusServiceUnavailable, "Authorization Pending", "")
			default:
				if m.logger != nil && snap.Status() == StatusError {
					m.logger.Warn("denying on errored grant snapshot",
						slog.String("detail", snap.ErrorDetail()),
						slog.String("path", r.URL.Path))
				}
				if spec.ShowError {
					httpx.Problem(w, http.StatusForbidden, "Access Denied", spec.DenialMessage())
					return
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
			}
		})
	}
}

// RefreshFor reloads the session's grants, for use after a server-side role
// or permission change.
func (m *Manager) RefreshFor(ctx context.Context, sess *shared.Session) *Snapshot {
	store := m.StoreFor(ctx, sess)
	store.Refresh(ctx)
	return store.Snapshot()
}

type snapshotContextKey struct{}

// ContextWithSnapshot stores the evaluated snapshot in the context.
func ContextWithSnapshot(ctx context.Context, snap *Snapshot) context.Context {
	return context.WithValue(ctx, snapshotContextKey{}, snap)
}

// SnapshotFromContext extracts the snapshot placed by Require. Handlers use
// it for finer-grained checks inside an already-gated route.
func SnapshotFromContext(ctx context.Context) *Snapshot {
	snap, _ := ctx.Value(snapshotContextKey{}).(*Snapshot)
	return snap
}
