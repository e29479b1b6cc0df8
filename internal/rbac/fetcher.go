package rbac

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// GrantSource is the slice of Service the grant fetcher needs.
type GrantSource interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
	EffectiveRoles(ctx context.Context, userID int64) ([]Role, error)
}

// GrantFetcher adapts the RBAC service to authz.Fetcher for co-located
// deployments, where the console and the records database share a process.
// The credential is the subject's user ID.
type GrantFetcher struct {
	source GrantSource
}

// NewGrantFetcher constructs a fetcher over the given source.
func NewGrantFetcher(source GrantSource) *GrantFetcher {
	return &GrantFetcher{source: source}
}

// FetchGrants implements authz.Fetcher. An unparseable credential is an
// error, never an empty grant set: the store records it and fails closed.
func (f *GrantFetcher) FetchGrants(ctx context.Context, token string) ([]string, []string, error) {
	userID, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("rbac: invalid grant credential: %w", err)
	}

	var permissions []string
	var roleCodes []string

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		codes, err := f.source.EffectivePermissions(ctx, userID)
		if err != nil {
			return fmt.Errorf("rbac: effective permissions: %w", err)
		}
		permissions = codes
		return nil
	})
	g.Go(func() error {
		roles, err := f.source.EffectiveRoles(ctx, userID)
		if err != nil {
			return fmt.Errorf("rbac: effective roles: %w", err)
		}
		codes := make([]string, 0, len(roles))
		for _, role := range roles {
			codes = append(codes, role.Code)
		}
		roleCodes = codes
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return permissions, roleCodes, nil
}
