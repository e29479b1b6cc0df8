package authz

import "sync"

// SessionFeed is a concrete SessionSource fed by the HTTP layer: the auth
// handlers push state transitions (login, logout, credential rotation) and
// every subscribed store reloads in response. Set is a no-op when the state
// is unchanged, so feeding it once per request is safe.
type SessionFeed struct {
	mu          sync.Mutex
	state       SessionState
	subscribers map[int]func(SessionState)
	nextSub     int
}

// NewSessionFeed constructs a feed starting from the given state.
func NewSessionFeed(initial SessionState) *SessionFeed {
	return &SessionFeed{
		state:       initial,
		subscribers: make(map[int]func(SessionState)),
	}
}

// Current returns the last pushed session state.
func (f *SessionFeed) Current() SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Set pushes a new session state, notifying subscribers when it differs
// from the current one.
func (f *SessionFeed) Set(state SessionState) {
	f.mu.Lock()
	if f.state == state {
		f.mu.Unlock()
		return
	}
	f.state = state
	subs := make([]func(SessionState), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers a change callback and returns its cancel function.
func (f *SessionFeed) Subscribe(fn func(SessionState)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subscribers, id)
	}
}
