package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix = "settings:"
	cacheTTL    = 5 * time.Minute
)

// Service reads settings through a Redis cache-aside layer. Writes go to
// Postgres and invalidate the cached entry.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *redis.Client
}

// NewService constructs a Service. cache may be nil, which disables caching.
func NewService(logger *slog.Logger, repo Repository, cache *redis.Client) *Service {
	return &Service{logger: logger, repo: repo, cache: cache}
}

func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cachePrefix+key).Result()
		if err == nil {
			var cached Setting
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, setting)
	return setting, nil
}

func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}

func (s *Service) Set(ctx context.Context, key, value string) (*Setting, error) {
	setting, err := s.repo.Upsert(ctx, key, value)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cachePrefix+key).Err(); err != nil {
			s.logger.Warn("invalidate setting cache", slog.String("key", key), slog.Any("error", err))
		}
	}
	return setting, nil
}

func (s *Service) fill(ctx context.Context, setting *Setting) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(setting)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cachePrefix+setting.Key, raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("fill setting cache", slog.String("key", setting.Key), slog.Any("error", err))
	}
}
