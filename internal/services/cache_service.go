package services

import (
	"context"
	"time"

	"gohire/internal/utils"
	"gohire/pkg/cache"
	"gohire/pkg/logger"
)

// CacheService is the read-cache seam the repositories depend on. A nil
// CacheService is valid everywhere and means "no caching".
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

type RateLimitResult struct {
	Allowed    bool          `json:"allowed"`
	Count      int64         `json:"count"`
	Remaining  int64         `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after"`
}

type cacheService struct {
	redis  *cache.RedisCache
	logger *logger.Logger
}

func NewCacheService(redis *cache.RedisCache, log *logger.Logger) CacheService {
	return &cacheService{
		redis:  redis,
		logger: log,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, key, dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	err := s.redis.Set(ctx, key, value, expiration)
	if err != nil {
		// Cache writes are best-effort; a failed Set must not fail the caller.
		s.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
	return err
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	err := s.redis.Delete(ctx, keys...)
	if err != nil {
		s.logger.WithError(err).Warn("cache delete failed")
	}
	return err
}

// CheckRateLimit counts one request against key within the rolling window.
// The window starts with the first request and expires as a whole.
func (s *cacheService) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	rateLimitKey := utils.CacheRateLimitPrefix + key

	count, err := s.redis.Increment(ctx, rateLimitKey)
	if err != nil {
		return nil, err
	}
	if count == 1 {
		if err := s.redis.SetExpire(ctx, rateLimitKey, window); err != nil {
			s.logger.WithError(err).WithField("key", rateLimitKey).Warn("failed to set rate limit window")
		}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	retryAfter := time.Duration(0)
	if count > limit {
		retryAfter = window
	}

	return &RateLimitResult{
		Allowed:    count <= limit,
		Count:      count,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}
