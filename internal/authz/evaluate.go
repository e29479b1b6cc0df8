package authz

import "strings"

// Predicate evaluation. All methods are pure, total, and fail closed: a nil
// snapshot or one whose status is not Ready holds no grants.

// HasPermission reports whether the subject holds the given permission code.
func (s *Snapshot) HasPermission(code string) bool {
	if s == nil || s.status != StatusReady {
		return false
	}
	_, ok := s.permissions[code]
	return ok
}

// HasRole reports whether the subject holds the given role code.
func (s *Snapshot) HasRole(code string) bool {
	if s == nil || s.status != StatusReady {
		return false
	}
	_, ok := s.roles[code]
	return ok
}

// HasAnyPermission reports whether at least one of the codes is held.
// An empty requirement list yields false: an ANY check with nothing to
// match must not open the gate by accident.
func (s *Snapshot) HasAnyPermission(codes []string) bool {
	for _, code := range codes {
		if s.HasPermission(code) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every code is held. An empty requirement
// list yields true (vacuous truth): an unspecified category does not deny.
func (s *Snapshot) HasAllPermissions(codes []string) bool {
	for _, code := range codes {
		if !s.HasPermission(code) {
			return false
		}
	}
	return true
}

// HasAnyRole reports whether at least one of the role codes is held.
// An empty requirement list yields false.
func (s *Snapshot) HasAnyRole(codes []string) bool {
	for _, code := range codes {
		if s.HasRole(code) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether every role code is held. An empty requirement
// list yields true.
func (s *Snapshot) HasAllRoles(codes []string) bool {
	for _, code := range codes {
		if !s.HasRole(code) {
			return false
		}
	}
	return true
}

// CanAccess resolves the resource/action convention to a permission lookup:
// action + "_" + lowercase(resource). Per-resource-instance scoping is not
// part of the convention; see ResourceChecker for the extension point.
func (s *Snapshot) CanAccess(resource, action string) bool {
	return s.HasPermission(action + "_" + strings.ToLower(resource))
}

// ResourceChecker extends the resource/action category with per-instance
// scoping. The default gate ignores resource IDs entirely; deployments that
// need row-level checks supply a checker to the Manager. The checker runs
// only after the conventional CanAccess lookup has already passed.
type ResourceChecker interface {
	CanAccessResource(resource, action string, resourceID int64, snap *Snapshot) bool
}
