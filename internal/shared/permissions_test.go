package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreScopesAreUniqueActionResourceCodes(t *testing.T) {
	scopes := CoreScopes()
	require.NotEmpty(t, scopes)

	seen := make(map[string]struct{}, len(scopes))
	for _, code := range scopes {
		assert.Equal(t, strings.ToLower(code), code, "codes are lowercase")
		assert.Contains(t, code, "_", "codes follow action_resource")
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %q", code)
		seen[code] = struct{}{}
	}

	// Every code the built-in gates reference is in the catalog.
	for _, code := range []string{PermCreateCourses, PermGradeEnrollments, PermManageUsers} {
		assert.Contains(t, scopes, code)
	}
}
