package authz

import "github.com/meridian-sis/meridian-sis/internal/shared"

// Decision is the ternary outcome of evaluating a gate specification
// against a grant snapshot. It is always recomputed, never cached.
type Decision int

const (
	// DecisionPending means the grant snapshot is still loading.
	DecisionPending Decision = iota
	// DecisionAllow permits the protected operation.
	DecisionAllow
	// DecisionDeny refuses the protected operation.
	DecisionDeny
)

// String returns a stable label for logging and metrics.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// Spec is an immutable description of one access check. Condition categories
// that are present combine with logical AND; zero values mean the category
// is unspecified and does not participate.
type Spec struct {
	// Permission requires a single permission code.
	Permission string
	// Permissions requires any (default) or all of a list, per RequireAll.
	Permissions []string
	RequireAll  bool
	// Role requires a single role code.
	Role string
	// Roles requires any (default) or all of a list, per RequireAllRoles.
	Roles           []string
	RequireAllRoles bool
	// Resource/Action require the conventional action_resource permission.
	// ResourceID is forwarded to a ResourceChecker when one is configured.
	Resource   string
	Action     string
	ResourceID int64
	// ShowError selects the structured access-denied response on Deny.
	ShowError    bool
	ErrorMessage string
}

// DenialMessage returns the configured denial message or a generic default.
// Underlying fetch error detail is never exposed here; it is only logged.
func (g Spec) DenialMessage() string {
	if g.ErrorMessage != "" {
		return g.ErrorMessage
	}
	return "You do not have permission to access this resource."
}

// Authorize evaluates spec against the snapshot without resource-instance
// scoping.
func Authorize(spec Spec, snap *Snapshot) Decision {
	return AuthorizeChecked(spec, snap, nil)
}

// AuthorizeChecked evaluates spec against the snapshot, consulting checker
// for resource-instance scoping when both a checker and a resource ID are
// present.
//
// Categories are evaluated in a fixed order, short-circuiting on the first
// unmet one: single permission, permission list, single role, role list,
// resource/action. A snapshot still loading yields Pending regardless of
// what spec asks for.
func AuthorizeChecked(spec Spec, snap *Snapshot, checker ResourceChecker) Decision {
	if snap.Status() == StatusLoading {
		return DecisionPending
	}
	if spec.Permission != "" && !snap.HasPermission(spec.Permission) {
		return DecisionDeny
	}
	if len(spec.Permissions) > 0 {
		if spec.RequireAll {
			if !snap.HasAllPermissions(spec.Permissions) {
				return DecisionDeny
			}
		} else if !snap.HasAnyPermission(spec.Permissions) {
			return DecisionDeny
		}
	}
	if spec.Role != "" && !snap.HasRole(spec.Role) {
		return DecisionDeny
	}
	if len(spec.Roles) > 0 {
		if spec.RequireAllRoles {
			if !snap.HasAllRoles(spec.Roles) {
				return DecisionDeny
			}
		} else if !snap.HasAnyRole(spec.Roles) {
			return DecisionDeny
		}
	}
	if spec.Resource != "" && spec.Action != "" {
		if !snap.CanAccess(spec.Resource, spec.Action) {
			return DecisionDeny
		}
		if checker != nil && spec.ResourceID != 0 {
			if !checker.CanAccessResource(spec.Resource, spec.Action, spec.ResourceID, snap) {
				return DecisionDeny
			}
		}
	}
	return DecisionAllow
}

// Named gate shortcuts used throughout the console. Each is a fixed
// specification, not separate logic.

// AdminOnly admits administrators exclusively.
func AdminOnly() Spec {
	return Spec{Role: shared.RoleAdmin}
}

// FacultyOrAdmin admits faculty members and administrators.
func FacultyOrAdmin() Spec {
	return Spec{Roles: []string{shared.RoleFaculty, shared.RoleAdmin}}
}

// StudentOrAbove admits any recognized institutional role.
func StudentOrAbove() Spec {
	return Spec{Roles: []string{shared.RoleStudent, shared.RoleFaculty, shared.RoleRegistrar, shared.RoleAdmin}}
}

// CanCreateCourses gates course creation.
func CanCreateCourses() Spec {
	return Spec{Permission: shared.PermCreateCourses}
}

// CanGradeEnrollments gates grade entry.
func CanGradeEnrollments() Spec {
	return Spec{Permission: shared.PermGradeEnrollments}
}

// CanManageUsers gates user administration.
func CanManageUsers() Spec {
	return Spec{Permission: shared.PermManageUsers}
}
