package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGrantSource struct {
	permissions []string
	roles       []Role
	permErr     error
	roleErr     error
}

func (s *stubGrantSource) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.permissions, s.permErr
}

func (s *stubGrantSource) EffectiveRoles(ctx context.Context, userID int64) ([]Role, error) {
	return s.roles, s.roleErr
}

func TestGrantFetcherReturnsCodes(t *testing.T) {
	fetcher := NewGrantFetcher(&stubGrantSource{
		permissions: []string{"create_courses"},
		roles:       []Role{{ID: 1, Code: "FACULTY", Name: "Faculty Member"}},
	})

	perms, roles, err := fetcher.FetchGrants(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"create_courses"}, perms)
	assert.Equal(t, []string{"FACULTY"}, roles)
}

func TestGrantFetcherRejectsMalformedCredential(t *testing.T) {
	fetcher := NewGrantFetcher(&stubGrantSource{})

	_, _, err := fetcher.FetchGrants(context.Background(), "not-a-user-id")
	require.Error(t, err)
}

func TestGrantFetcherPropagatesLookupFailure(t *testing.T) {
	boom := errors.New("db down")
	fetcher := NewGrantFetcher(&stubGrantSource{permErr: boom})

	_, _, err := fetcher.FetchGrants(context.Background(), "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
