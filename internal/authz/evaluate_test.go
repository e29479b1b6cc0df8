package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermissionIsSetMembership(t *testing.T) {
	snap := NewReadySnapshot([]string{"create_courses", "view_users"}, nil, 1)

	assert.True(t, snap.HasPermission("create_courses"))
	assert.True(t, snap.HasPermission("view_users"))
	assert.False(t, snap.HasPermission("delete_users"))
	assert.False(t, snap.HasPermission(""))
}

func TestHasRoleIsSetMembership(t *testing.T) {
	snap := NewReadySnapshot(nil, []string{"ADMIN", "FACULTY"}, 1)

	assert.True(t, snap.HasRole("ADMIN"))
	assert.False(t, snap.HasRole("STUDENT"))
}

func TestEmptyRequirementListContract(t *testing.T) {
	snap := NewReadySnapshot([]string{"a"}, []string{"R"}, 1)

	// ANY over nothing denies; ALL over nothing passes vacuously.
	assert.False(t, snap.HasAnyPermission(nil))
	assert.False(t, snap.HasAnyRole(nil))
	assert.True(t, snap.HasAllPermissions(nil))
	assert.True(t, snap.HasAllRoles(nil))
}

func TestAnyAllCombinations(t *testing.T) {
	snap := NewReadySnapshot([]string{"a", "b"}, nil, 1)

	assert.True(t, snap.HasAnyPermission([]string{"a", "c"}))
	assert.False(t, snap.HasAnyPermission([]string{"c", "d"}))
	assert.False(t, snap.HasAllPermissions([]string{"a", "c"}))
	assert.True(t, snap.HasAllPermissions([]string{"a", "b"}))
}

func TestCanAccessConvention(t *testing.T) {
	snap := NewReadySnapshot([]string{"create_courses"}, nil, 1)

	assert.True(t, snap.CanAccess("courses", "create"))
	assert.True(t, snap.CanAccess("Courses", "create"))
	assert.False(t, snap.CanAccess("courses", "delete"))
	assert.Equal(t, snap.HasPermission("create_courses"), snap.CanAccess("courses", "create"))
}

func TestFailClosedWhileLoadingOrErrored(t *testing.T) {
	for name, snap := range map[string]*Snapshot{
		"loading": NewLoadingSnapshot(3),
		"error":   NewErrorSnapshot("boom", 3),
		"nil":     nil,
	} {
		assert.False(t, snap.HasPermission("create_courses"), name)
		assert.False(t, snap.HasRole("ADMIN"), name)
		assert.False(t, snap.HasAnyPermission([]string{"create_courses"}), name)
		assert.False(t, snap.CanAccess("courses", "create"), name)
		assert.Empty(t, snap.Permissions(), name)
		assert.Empty(t, snap.Roles(), name)
	}
}

func TestSnapshotDeduplicatesGrants(t *testing.T) {
	snap := NewReadySnapshot([]string{"a", "a", "b", ""}, []string{"R", "R"}, 1)

	assert.Equal(t, []string{"a", "b"}, snap.Permissions())
	assert.Equal(t, []string{"R"}, snap.Roles())
}
