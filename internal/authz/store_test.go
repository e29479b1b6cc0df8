package authz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher serves grants per token and counts calls. When block is
// set, FetchGrants waits until released (ignoring context cancellation, to
// exercise the stale-result discard path).
type scriptedFetcher struct {
	mu          sync.Mutex
	permissions map[string][]string
	roles       map[string][]string
	err         error
	calls       int
	block       chan struct{}
	started     chan struct{}
}

func (f *scriptedFetcher) FetchGrants(ctx context.Context, token string) ([]string, []string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	started := f.started
	err := f.err
	perms := f.permissions[token]
	roles := f.roles[token]
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, nil, err
	}
	return perms, roles, nil
}

func (f *scriptedFetcher) setGrants(token string, perms, roles []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permissions == nil {
		f.permissions = make(map[string][]string)
	}
	if f.roles == nil {
		f.roles = make(map[string][]string)
	}
	f.permissions[token] = perms
	f.roles[token] = roles
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStoreUnauthenticatedIsReadyEmptyWithoutFetch(t *testing.T) {
	fetcher := &scriptedFetcher{}
	store := NewStore(fetcher)
	defer store.Close()

	store.Init(context.Background(), NewSessionFeed(SessionState{}))

	snap := store.Snapshot()
	assert.Equal(t, StatusReady, snap.Status())
	assert.Empty(t, snap.Permissions())
	assert.Empty(t, snap.Roles())
	assert.Equal(t, 0, fetcher.callCount())
}

func TestStoreLoadsGrantsOnInit(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.setGrants("7", []string{"create_courses"}, []string{"FACULTY"})
	store := NewStore(fetcher)
	defer store.Close()

	store.Init(context.Background(), NewSessionFeed(SessionState{Authenticated: true, Token: "7"}))

	snap, err := store.WaitReady(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusReady, snap.Status())
	assert.True(t, snap.HasPermission("create_courses"))
	assert.True(t, snap.HasRole("FACULTY"))

	// Spec scenario: a gate requiring ADMIN denies, one requiring the held
	// permission allows.
	assert.Equal(t, DecisionDeny, Authorize(Spec{Role: "ADMIN"}, snap))
	assert.Equal(t, DecisionAllow, Authorize(Spec{Permission: "create_courses"}, snap))
}

func TestStoreFetchFailureFailsClosed(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.setGrants("7", []string{"create_courses"}, []string{"FACULTY"})
	store := NewStore(fetcher)
	defer store.Close()
	feed := NewSessionFeed(SessionState{Authenticated: true, Token: "7"})
	store.Init(context.Background(), feed)

	snap := store.Snapshot()
	require.True(t, snap.HasPermission("create_courses"))

	// The next refresh fails: grants must be cleared, not preserved.
	fetcher.mu.Lock()
	fetcher.err = errors.New("rbac backend: 500")
	fetcher.mu.Unlock()
	store.Refresh(context.Background())

	snap = store.Snapshot()
	assert.Equal(t, StatusError, snap.Status())
	assert.Equal(t, "rbac backend: 500", snap.ErrorDetail())
	assert.False(t, snap.HasPermission("create_courses"))
	assert.False(t, snap.HasRole("FACULTY"))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Permission: "create_courses"}, snap))
}

func TestStoreStaleResponseIsDiscarded(t *testing.T) {
	fetcher := &scriptedFetcher{
		block:   make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	fetcher.setGrants("old", []string{"old_grant"}, nil)
	store := NewStore(fetcher)
	defer store.Close()

	firstDone := make(chan struct{})
	go func() {
		store.load(context.Background(), SessionState{Authenticated: true, Token: "old"})
		close(firstDone)
	}()
	<-fetcher.started

	// Supersede the in-flight load. The second fetch resolves first.
	fetcher.setGrants("new", []string{"new_grant"}, nil)
	secondDone := make(chan struct{})
	go func() {
		store.load(context.Background(), SessionState{Authenticated: true, Token: "new"})
		close(secondDone)
	}()
	<-fetcher.started

	release := fetcher.block
	fetcher.mu.Lock()
	fetcher.block = nil
	fetcher.mu.Unlock()
	close(release)
	<-firstDone
	<-secondDone

	// Only the higher-generation response is applied; the first's result
	// never overwrites it even though it arrived later.
	snap := store.Snapshot()
	assert.Equal(t, StatusReady, snap.Status())
	assert.True(t, snap.HasPermission("new_grant"))
	assert.False(t, snap.HasPermission("old_grant"))
}

func TestStoreSessionChangeTriggersReload(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.setGrants("7", nil, []string{"FACULTY"})
	store := NewStore(fetcher)
	defer store.Close()
	feed := NewSessionFeed(SessionState{})
	store.Init(context.Background(), feed)

	require.Equal(t, StatusReady, store.Snapshot().Status())
	require.False(t, store.Snapshot().HasRole("FACULTY"))

	feed.Set(SessionState{Authenticated: true, Token: "7"})
	snap, err := store.WaitReady(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.HasRole("FACULTY"))

	// Logout clears the grants without a backend call.
	calls := fetcher.callCount()
	feed.Set(SessionState{})
	snap = store.Snapshot()
	assert.Equal(t, StatusReady, snap.Status())
	assert.False(t, snap.HasRole("FACULTY"))
	assert.Equal(t, calls, fetcher.callCount())
}

func TestStoreRefreshPicksUpRevokedRole(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.setGrants("7", nil, []string{"FACULTY"})
	store := NewStore(fetcher)
	defer store.Close()
	store.Init(context.Background(), NewSessionFeed(SessionState{Authenticated: true, Token: "7"}))

	spec := Spec{Role: "FACULTY"}
	require.Equal(t, DecisionAllow, Authorize(spec, store.Snapshot()))

	// Role revoked server-side; the next refresh must flip the decision.
	fetcher.setGrants("7", nil, nil)
	store.Refresh(context.Background())
	assert.Equal(t, DecisionDeny, Authorize(spec, store.Snapshot()))
}

type ctxAwareFetcher struct{}

func (ctxAwareFetcher) FetchGrants(ctx context.Context, token string) ([]string, []string, error) {
	<-ctx.Done()
	return nil, nil, ctx.Err()
}

func TestStoreFetchTimeout(t *testing.T) {
	store := NewStore(ctxAwareFetcher{}, WithFetchTimeout(20*time.Millisecond))
	defer store.Close()

	store.Init(context.Background(), NewSessionFeed(SessionState{Authenticated: true, Token: "7"}))

	snap := store.Snapshot()
	assert.Equal(t, StatusError, snap.Status())
	assert.NotEmpty(t, snap.ErrorDetail())
}

func TestStoreSubscribersObserveTransitions(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.setGrants("7", []string{"a"}, nil)
	store := NewStore(fetcher)
	defer store.Close()

	var mu sync.Mutex
	var seen []Status
	cancel := store.Subscribe(func(snap *Snapshot) {
		mu.Lock()
		seen = append(seen, snap.Status())
		mu.Unlock()
	})
	defer cancel()

	store.Init(context.Background(), NewSessionFeed(SessionState{Authenticated: true, Token: "7"}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, StatusLoading, seen[0])
	assert.Equal(t, StatusReady, seen[1])
}

func TestStoreWaitReadyAfterCloseReturnsImmediately(t *testing.T) {
	fetcher := &scriptedFetcher{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	fetcher.setGrants("7", []string{"create_courses"}, nil)
	store := NewStore(fetcher)

	go store.load(context.Background(), SessionState{Authenticated: true, Token: "7"})
	<-fetcher.started

	// Dispose races an in-flight load: waiters arriving after Close must
	// not hang on the loading snapshot.
	store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap, err := store.WaitReady(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, StatusLoading, snap.Status())
	assert.False(t, snap.HasPermission("create_courses"))

	close(fetcher.block)
}

func TestStoreCloseDetachesFromSource(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.setGrants("7", []string{"a"}, nil)
	store := NewStore(fetcher)
	feed := NewSessionFeed(SessionState{Authenticated: true, Token: "7"})
	store.Init(context.Background(), feed)
	calls := fetcher.callCount()

	store.Close()
	feed.Set(SessionState{Authenticated: true, Token: "8"})

	assert.Equal(t, calls, fetcher.callCount())
}
