package authz

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionState is the view of the authentication session the store reacts
// to: whether a subject is signed in and the opaque credential the grant
// fetcher needs. Any change to either triggers a reload.
type SessionState struct {
	Authenticated bool
	Token         string
}

// SessionSource supplies the current session state and emits change events.
type SessionSource interface {
	Current() SessionState
	Subscribe(fn func(SessionState)) (cancel func())
}

// Fetcher loads the permission and role grants for a credential.
type Fetcher interface {
	FetchGrants(ctx context.Context, token string) (permissions []string, roles []string, err error)
}

// FetchRecorder receives fetch outcomes for operator visibility. Decisions
// and fetches are observable only through metrics and logs; failures are
// never surfaced to callers as errors.
type FetchRecorder interface {
	RecordGrantFetch(duration time.Duration, err error)
}

// DefaultFetchTimeout bounds a single grant fetch. A hung backend call must
// not leave gates pending indefinitely.
const DefaultFetchTimeout = 10 * time.Second

// Store owns the single current grant snapshot for one subject and keeps it
// synchronized with the backend. Overlapping loads are resolved by a
// generation counter: superseding a load cancels its fetch context, and a
// late result whose generation no longer matches is discarded silently.
type Store struct {
	fetcher  Fetcher
	timeout  time.Duration
	logger   *slog.Logger
	recorder FetchRecorder

	mu             sync.Mutex
	snap           *Snapshot
	generation     uint64
	cancelInflight context.CancelFunc
	readyCh        chan struct{}
	source         SessionSource
	unsubscribe    func()
	subscribers    map[int]func(*Snapshot)
	nextSub        int
	closed         bool
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithFetchTimeout overrides the per-fetch timeout.
func WithFetchTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger attaches a logger for fetch failures and discarded results.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithFetchRecorder attaches a metrics recorder for fetch outcomes.
func WithFetchRecorder(rec FetchRecorder) StoreOption {
	return func(s *Store) { s.recorder = rec }
}

// NewStore constructs a Store. The snapshot starts in the loading state;
// Init (or an explicit Load) resolves it.
func NewStore(fetcher Fetcher, opts ...StoreOption) *Store {
	s := &Store{
		fetcher:     fetcher,
		timeout:     DefaultFetchTimeout,
		snap:        NewLoadingSnapshot(0),
		readyCh:     make(chan struct{}),
		subscribers: make(map[int]func(*Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init attaches the session source, subscribes to its change events, and
// performs the initial load. Call Close to detach.
func (s *Store) Init(ctx context.Context, source SessionSource) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.source = source
	s.mu.Unlock()

	if source != nil {
		cancel := source.Subscribe(func(state SessionState) {
			s.load(context.Background(), state)
		})
		s.mu.Lock()
		s.unsubscribe = cancel
		s.mu.Unlock()
	}
	s.Load(ctx)
}

// Load synchronizes the snapshot with the current session state. It blocks
// until the snapshot for this invocation's generation is resolved or the
// invocation has been superseded.
func (s *Store) Load(ctx context.Context) {
	var state SessionState
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()
	if source != nil {
		state = source.Current()
	}
	s.load(ctx, state)
}

// Refresh is the manually triggered equivalent of Load, for use after a
// server-side grant change.
func (s *Store) Refresh(ctx context.Context) {
	s.Load(ctx)
}

// Snapshot returns the current grant snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// WaitReady blocks until the snapshot leaves the loading state or the
// context is done, returning the snapshot either way.
func (s *Store) WaitReady(ctx context.Context) (*Snapshot, error) {
	for {
		s.mu.Lock()
		snap := s.snap
		ch := s.readyCh
		s.mu.Unlock()
		if snap.Status() != StatusLoading {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ch:
		}
	}
}

// Subscribe registers a callback invoked with every applied snapshot. The
// returned function cancels the subscription.
func (s *Store) Subscribe(fn func(*Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Close detaches from the session source, cancels in-flight work, and
// installs an empty ready snapshot so waiters racing Close return instead
// of blocking on a load that will never resolve. The store applies no
// further snapshots after Close returns.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	if s.cancelInflight != nil {
		s.cancelInflight()
		s.cancelInflight = nil
	}
	s.applyLocked(NewReadySnapshot(nil, nil, s.generation))
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) load(ctx context.Context, state SessionState) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	if s.cancelInflight != nil {
		s.cancelInflight()
		s.cancelInflight = nil
	}

	if !state.Authenticated {
		// Session absent is not an error: an authenticated-empty snapshot,
		// applied without touching the backend.
		s.applyLocked(NewReadySnapshot(nil, nil, gen))
		subs := s.snapshotSubscribersLocked()
		snap := s.snap
		s.mu.Unlock()
		notify(subs, snap)
		return
	}

	s.applyLocked(NewLoadingSnapshot(gen))
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	s.cancelInflight = cancel
	subs := s.snapshotSubscribersLocked()
	loading := s.snap
	s.mu.Unlock()
	notify(subs, loading)

	start := time.Now()
	permissions, roles, err := s.fetcher.FetchGrants(fetchCtx, state.Token)
	cancel()
	if s.recorder != nil {
		s.recorder.RecordGrantFetch(time.Since(start), err)
	}

	s.mu.Lock()
	if s.closed || s.generation != gen {
		// Superseded by a newer load; discard this result silently.
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("discarding stale grant fetch", slog.Uint64("generation", gen))
		}
		return
	}
	s.cancelInflight = nil
	if err != nil {
		s.applyLocked(NewErrorSnapshot(err.Error(), gen))
		if s.logger != nil {
			s.logger.Warn("grant fetch failed", slog.Any("error", err), slog.Uint64("generation", gen))
		}
	} else {
		s.applyLocked(NewReadySnapshot(permissions, roles, gen))
	}
	subs = s.snapshotSubscribersLocked()
	snap := s.snap
	s.mu.Unlock()
	notify(subs, snap)
}

// applyLocked installs a snapshot and maintains the readiness channel.
// Callers must hold s.mu.
func (s *Store) applyLocked(snap *Snapshot) {
	s.snap = snap
	if snap.Status() == StatusLoading {
		if s.readyCh == nil {
			s.readyCh = make(chan struct{})
		}
		return
	}
	if s.readyCh != nil {
		close(s.readyCh)
		s.readyCh = nil
	}
}

func (s *Store) snapshotSubscribersLocked() []func(*Snapshot) {
	subs := make([]func(*Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(*Snapshot), snap *Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
