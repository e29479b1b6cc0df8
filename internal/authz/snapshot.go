// Package authz implements the authorization evaluation engine for the
// console: a per-subject cache of role and permission grants kept in sync
// with the records backend, pure predicate evaluation over that cache, and
// a declarative gate contract consumed by the HTTP layer.
package authz

import "sort"

// Status describes the lifecycle state of a grant snapshot.
type Status int

const (
	// StatusLoading means a grant fetch is in flight; evaluation fails closed.
	StatusLoading Status = iota
	// StatusReady means the snapshot holds the subject's current grants.
	StatusReady
	// StatusError means the last fetch failed; evaluation fails closed.
	StatusError
)

// String returns a stable label for logging and metrics.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of a subject's grants at one generation.
// While the status is Loading or Error the effective grant set is empty,
// never the previous snapshot's values.
type Snapshot struct {
	permissions map[string]struct{}
	roles       map[string]struct{}
	status      Status
	errorDetail string
	generation  uint64
}

// NewLoadingSnapshot returns a snapshot representing a fetch in flight.
func NewLoadingSnapshot(generation uint64) *Snapshot {
	return &Snapshot{status: StatusLoading, generation: generation}
}

// NewReadySnapshot returns a snapshot holding the given grants. Inputs are
// copied and deduplicated; order is irrelevant.
func NewReadySnapshot(permissions, roles []string, generation uint64) *Snapshot {
	return &Snapshot{
		permissions: toSet(permissions),
		roles:       toSet(roles),
		status:      StatusReady,
		generation:  generation,
	}
}

// NewErrorSnapshot returns a snapshot recording a failed fetch. The grant
// sets are empty regardless of any previously held values.
func NewErrorSnapshot(detail string, generation uint64) *Snapshot {
	return &Snapshot{status: StatusError, errorDetail: detail, generation: generation}
}

// Status returns the snapshot lifecycle state.
func (s *Snapshot) Status() Status {
	if s == nil {
		return StatusLoading
	}
	return s.status
}

// ErrorDetail returns the recorded failure message, empty unless StatusError.
func (s *Snapshot) ErrorDetail() string {
	if s == nil {
		return ""
	}
	return s.errorDetail
}

// Generation returns the request generation that produced this snapshot.
func (s *Snapshot) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}

// Permissions returns a sorted copy of the effective permission codes.
func (s *Snapshot) Permissions() []string {
	if s == nil || s.status != StatusReady {
		return nil
	}
	return sortedKeys(s.permissions)
}

// Roles returns a sorted copy of the effective role codes.
func (s *Snapshot) Roles() []string {
	if s == nil || s.status != StatusReady {
		return nil
	}
	return sortedKeys(s.roles)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
