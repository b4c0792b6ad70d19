package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/healthweb/planboard/internal/domain"
)

const weekPlanKeyPrefix = "plan:week:"

// CachedWeekPlanRepository wraps a WeekPlanFetcher with a short-lived Redis read-through cache.
// Only successful weeks are cached; missing weeks and failures always reach the source.
// Entries are scoped by the caller's access token so one account never reads
// weeks the upstream authorized for another.
type CachedWeekPlanRepository struct {
	source domain.WeekPlanFetcher
	cache  *RedisCacheRepository
	ttl    time.Duration
}

// NewCachedWeekPlanRepository creates a new cached week plan repository
func NewCachedWeekPlanRepository(source domain.WeekPlanFetcher, cache *RedisCacheRepository, ttl time.Duration) *CachedWeekPlanRepository {
	return &CachedWeekPlanRepository{
		source: source,
		cache:  cache,
		ttl:    ttl,
	}
}

func weekPlanKey(ctx context.Context, matchID int64, weekStart time.Time) string {
	return fmt.Sprintf("%s%d:%s:%s", weekPlanKeyPrefix, matchID, tokenScope(ctx), domain.DateKey(weekStart))
}

func tokenScope(ctx context.Context) string {
	token := domain.AccessTokenFromContext(ctx)
	if token == "" {
		return "anon"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// FetchWeek retrieves a week with caching
func (r *CachedWeekPlanRepository) FetchWeek(ctx context.Context, matchID int64, weekStart time.Time) (*domain.PlanWeek, error) {
	key := weekPlanKey(ctx, matchID, weekStart)

	// Try cache first
	var week domain.PlanWeek
	if err := r.cache.Get(ctx, key, &week); err == nil {
		return &week, nil
	}

	// Cache miss - fetch from source
	result, err := r.source.FetchWeek(ctx, matchID, weekStart)
	if err != nil {
		return nil, err
	}

	// Store in cache (ignore cache errors)
	_ = r.cache.Set(ctx, key, result, r.ttl)

	return result, nil
}

// InvalidateMatch drops every cached week of a match
func (r *CachedWeekPlanRepository) InvalidateMatch(ctx context.Context, matchID int64) error {
	return r.cache.DeleteByPattern(ctx, fmt.Sprintf("%s%d:*", weekPlanKeyPrefix, matchID))
}
