package settings

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

type countingRepo struct {
	values map[string]*Setting
	gets   int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{values: make(map[string]*Setting)}
}

func (c *countingRepo) Get(_ context.Context, key string) (*Setting, error) {
	c.gets++
	s, ok := c.values[key]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (c *countingRepo) List(context.Context) ([]Setting, error) {
	var list []Setting
	for _, s := range c.values {
		list = append(list, *s)
	}
	return list, nil
}

func (c *countingRepo) Upsert(_ context.Context, key, value string) (*Setting, error) {
	s := &Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	c.values[key] = s
	clone := *s
	return &clone, nil
}

func newCachedService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, client), mr
}

func TestGetServesSecondReadFromCache(t *testing.T) {
	repo := newCountingRepo()
	svc, _ := newCachedService(t, repo)

	_, err := svc.Set(context.Background(), "grading.scale", "letter")
	require.NoError(t, err)

	first, err := svc.Get(context.Background(), "grading.scale")
	require.NoError(t, err)
	assert.Equal(t, "letter", first.Value)

	second, err := svc.Get(context.Background(), "grading.scale")
	require.NoError(t, err)
	assert.Equal(t, "letter", second.Value)
	assert.Equal(t, 1, repo.gets)
}

func TestSetInvalidatesCache(t *testing.T) {
	repo := newCountingRepo()
	svc, mr := newCachedService(t, repo)

	_, err := svc.Set(context.Background(), "registration.cap", "18")
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), "registration.cap")
	require.NoError(t, err)
	require.True(t, mr.Exists("settings:registration.cap"))

	_, err = svc.Set(context.Background(), "registration.cap", "21")
	require.NoError(t, err)
	assert.False(t, mr.Exists("settings:registration.cap"))

	refreshed, err := svc.Get(context.Background(), "registration.cap")
	require.NoError(t, err)
	assert.Equal(t, "21", refreshed.Value)
}

func TestGetUnknownKey(t *testing.T) {
	svc, _ := newCachedService(t, newCountingRepo())
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestServiceWorksWithoutCache(t *testing.T) {
	repo := newCountingRepo()
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, nil)

	_, err := svc.Set(context.Background(), "k", "v")
	require.NoError(t, err)
	got, err := svc.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Value)
}
