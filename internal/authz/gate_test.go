package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-sis/meridian-sis/internal/shared"
)

func TestAuthorizePendingWhileLoading(t *testing.T) {
	loading := NewLoadingSnapshot(1)

	specs := []Spec{
		{},
		{Permission: "create_courses"},
		{Role: "ADMIN"},
		{Resource: "courses", Action: "create"},
	}
	for _, spec := range specs {
		assert.Equal(t, DecisionPending, Authorize(spec, loading))
	}
}

func TestAuthorizeEmptyReadySnapshotDeniesNonTrivialSpecs(t *testing.T) {
	empty := NewReadySnapshot(nil, nil, 1)

	assert.Equal(t, DecisionAllow, Authorize(Spec{}, empty))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Permission: "x"}, empty))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Permissions: []string{"x"}}, empty))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Role: "ADMIN"}, empty))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Roles: []string{"ADMIN"}}, empty))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Resource: "courses", Action: "create"}, empty))
}

func TestAuthorizeErrorSnapshotDenies(t *testing.T) {
	errored := NewErrorSnapshot("backend down", 2)

	assert.Equal(t, DecisionDeny, Authorize(Spec{Permission: "x"}, errored))
	assert.Equal(t, DecisionAllow, Authorize(Spec{}, errored))
}

func TestAuthorizeCombinators(t *testing.T) {
	snap := NewReadySnapshot([]string{"a", "b"}, []string{"FACULTY"}, 1)

	assert.Equal(t, DecisionAllow, Authorize(Spec{Permissions: []string{"a", "c"}}, snap))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Permissions: []string{"a", "c"}, RequireAll: true}, snap))
	assert.Equal(t, DecisionAllow, Authorize(Spec{Permissions: []string{"a", "b"}, RequireAll: true}, snap))
	assert.Equal(t, DecisionAllow, Authorize(Spec{Roles: []string{"FACULTY", "ADMIN"}}, snap))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Roles: []string{"FACULTY", "ADMIN"}, RequireAllRoles: true}, snap))
}

func TestAuthorizeCategoriesCombineWithAND(t *testing.T) {
	snap := NewReadySnapshot([]string{"create_courses"}, []string{"FACULTY"}, 1)

	allow := Spec{Permission: "create_courses", Role: "FACULTY", Resource: "courses", Action: "create"}
	assert.Equal(t, DecisionAllow, Authorize(allow, snap))

	// A single failing category denies even when the others pass.
	assert.Equal(t, DecisionDeny, Authorize(Spec{Permission: "create_courses", Role: "ADMIN"}, snap))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Permission: "missing", Role: "FACULTY"}, snap))
	assert.Equal(t, DecisionDeny, Authorize(Spec{Role: "FACULTY", Resource: "users", Action: "edit"}, snap))
}

type allowListChecker struct {
	allowed int64
}

func (c allowListChecker) CanAccessResource(resource, action string, resourceID int64, snap *Snapshot) bool {
	return resourceID == c.allowed
}

func TestResourceCheckerExtensionPoint(t *testing.T) {
	snap := NewReadySnapshot([]string{"edit_courses"}, nil, 1)
	spec := Spec{Resource: "courses", Action: "edit", ResourceID: 42}

	// Without a checker the resource ID is ignored entirely.
	assert.Equal(t, DecisionAllow, Authorize(spec, snap))

	assert.Equal(t, DecisionAllow, AuthorizeChecked(spec, snap, allowListChecker{allowed: 42}))
	assert.Equal(t, DecisionDeny, AuthorizeChecked(spec, snap, allowListChecker{allowed: 7}))

	// The checker only runs after the conventional permission lookup passes.
	bare := NewReadySnapshot(nil, nil, 1)
	assert.Equal(t, DecisionDeny, AuthorizeChecked(spec, bare, allowListChecker{allowed: 42}))

	// No resource ID means nothing to scope.
	unscoped := Spec{Resource: "courses", Action: "edit"}
	assert.Equal(t, DecisionAllow, AuthorizeChecked(unscoped, snap, allowListChecker{allowed: 7}))
}

func TestDenialMessage(t *testing.T) {
	assert.Equal(t, "You do not have permission to access this resource.", Spec{}.DenialMessage())
	assert.Equal(t, "Admins only.", Spec{ErrorMessage: "Admins only."}.DenialMessage())
}

func TestNamedGateShortcuts(t *testing.T) {
	admin := NewReadySnapshot(nil, []string{shared.RoleAdmin}, 1)
	faculty := NewReadySnapshot([]string{shared.PermCreateCourses}, []string{shared.RoleFaculty}, 1)
	student := NewReadySnapshot(nil, []string{shared.RoleStudent}, 1)

	assert.Equal(t, DecisionAllow, Authorize(AdminOnly(), admin))
	assert.Equal(t, DecisionDeny, Authorize(AdminOnly(), faculty))

	assert.Equal(t, DecisionAllow, Authorize(FacultyOrAdmin(), admin))
	assert.Equal(t, DecisionAllow, Authorize(FacultyOrAdmin(), faculty))
	assert.Equal(t, DecisionDeny, Authorize(FacultyOrAdmin(), student))

	assert.Equal(t, DecisionAllow, Authorize(StudentOrAbove(), student))
	assert.Equal(t, DecisionAllow, Authorize(StudentOrAbove(), admin))

	assert.Equal(t, DecisionAllow, Authorize(CanCreateCourses(), faculty))
	assert.Equal(t, DecisionDeny, Authorize(CanCreateCourses(), admin))
	assert.Equal(t, DecisionDeny, Authorize(CanGradeEnrollments(), faculty))
	assert.Equal(t, DecisionDeny, Authorize(CanManageUsers(), student))
}
