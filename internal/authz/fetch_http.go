package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	permissionsPath = "/rbac/permission-checks/my_permissions/"
	rolesPath       = "/rbac/permission-checks/my_roles/"
)

// HTTPFetcher loads grants from the records backend's RBAC endpoints. The
// two lookups run in parallel; concurrent fetches for the same credential
// are deduplicated through singleflight.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	group   singleflight.Group
}

// NewHTTPFetcher constructs a fetcher against the given base URL. A nil
// client falls back to http.DefaultClient; the store's fetch timeout bounds
// each call through the context.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type grantPayload struct {
	Permissions []string
	Roles       []string
}

type permissionsResponse struct {
	Permissions []string `json:"permissions"`
}

type rolesResponse struct {
	Roles []struct {
		Code string `json:"code"`
	} `json:"roles"`
}

// FetchGrants implements Fetcher.
func (f *HTTPFetcher) FetchGrants(ctx context.Context, token string) ([]string, []string, error) {
	resultCh := f.group.DoChan(token, func() (any, error) {
		// The flight can outlive the caller that opened it: a superseded
		// load cancels its context while a newer load for the same token
		// joins the same flight. Detach from the opener so its cancellation
		// cannot fail the joiners; the opener's deadline still bounds the
		// call.
		fetchCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithDeadline(fetchCtx, deadline)
			defer cancel()
		}
		return f.fetch(fetchCtx, token)
	})
	select {
	case <-ctx.Done():
		// Drop the key so the next caller opens a fresh flight instead of
		// joining one nobody is waiting on.
		f.group.Forget(token)
		return nil, nil, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return nil, nil, res.Err
		}
		payload := res.Val.(grantPayload)
		return payload.Permissions, payload.Roles, nil
	}
}

func (f *HTTPFetcher) fetch(ctx context.Context, token string) (grantPayload, error) {
	var payload grantPayload

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var body permissionsResponse
		if err := f.get(ctx, permissionsPath, token, &body); err != nil {
			return err
		}
		payload.Permissions = body.Permissions
		return nil
	})
	g.Go(func() error {
		var body rolesResponse
		if err := f.get(ctx, rolesPath, token, &body); err != nil {
			return err
		}
		codes := make([]string, 0, len(body.Roles))
		for _, role := range body.Roles {
			if role.Code != "" {
				codes = append(codes, role.Code)
			}
		}
		payload.Roles = codes
		return nil
	})
	if err := g.Wait(); err != nil {
		return grantPayload{}, err
	}
	return payload, nil
}

func (f *HTTPFetcher) get(ctx context.Context, path, token string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("authz: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("authz: fetch %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("authz: fetch %s: unexpected status %d", path, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(target); err != nil {
		return fmt.Errorf("authz: decode %s: %w", path, err)
	}
	return nil
}
