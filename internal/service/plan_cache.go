package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/healthweb/planboard/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// WeekOutcome is the per-week result of a refresh cycle
type WeekOutcome string

const (
	WeekLoaded  WeekOutcome = "loaded"
	WeekMissing WeekOutcome = "missing"
	WeekFailed  WeekOutcome = "failed"
)

// WeekResult reports what one week contributed to a refresh cycle
type WeekResult struct {
	WeekStart string      `json:"week_start"`
	Outcome   WeekOutcome `json:"outcome"`
	Days      int         `json:"days"`
	Error     string      `json:"error,omitempty"`
}

// RefreshResult is the merged outcome of one refresh cycle.
// Committed is false when a newer cycle or a match switch superseded it.
type RefreshResult struct {
	CycleID   string                     `json:"cycle_id"`
	Seq       uint64                     `json:"seq"`
	MatchID   int64                      `json:"match_id"`
	Committed bool                       `json:"committed"`
	Version   uint64                     `json:"version"`
	Weeks     []WeekResult               `json:"weeks"`
	Days      map[string]*domain.PlanDay `json:"-"`
}

// CommitHook is notified once per committed refresh cycle
type CommitHook func(result *RefreshResult)

// PlanCache maps calendar date keys to the day plans of the selected match.
// A missing key means "not loaded"; a present nil value is a loaded null day.
type PlanCache struct {
	fetcher domain.WeekPlanFetcher
	limit   int
	metrics *boardMetrics

	seq atomic.Uint64

	mu           sync.RWMutex
	days         map[string]*domain.PlanDay
	version      uint64
	epoch        uint64
	committedSeq uint64
	onCommit     CommitHook
}

// NewPlanCache creates a cache fetching at most concurrency weeks at a time
func NewPlanCache(fetcher domain.WeekPlanFetcher, concurrency int) *PlanCache {
	if concurrency <= 0 {
		concurrency = domain.DaysPerWeek
	}
	return &PlanCache{
		fetcher: fetcher,
		limit:   concurrency,
		metrics: newBoardMetrics(),
		days:    make(map[string]*domain.PlanDay),
	}
}

// OnCommit registers the hook fired after each committed cycle
func (c *PlanCache) OnCommit(hook CommitHook) {
	c.mu.Lock()
	c.onCommit = hook
	c.mu.Unlock()
}

// Reset empties the cache synchronously. Cycles started before the reset can
// no longer commit.
func (c *PlanCache) Reset() {
	c.mu.Lock()
	c.days = make(map[string]*domain.PlanDay)
	c.epoch++
	c.version++
	c.mu.Unlock()
}

// Epoch identifies the current reset generation
func (c *PlanCache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// Version increases on every commit and reset
func (c *PlanCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Day returns the cached day and whether the date has been loaded
func (c *PlanCache) Day(dateKey string) (*domain.PlanDay, bool) {
	day, loaded, _ := c.DayAt(dateKey)
	return day, loaded
}

// DayAt is Day plus the cache version the answer belongs to
func (c *PlanCache) DayAt(dateKey string) (*domain.PlanDay, bool, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	day, loaded := c.days[dateKey]
	return day, loaded, c.version
}

// Snapshot returns a copy of the mapping with its version
func (c *PlanCache) Snapshot() (map[string]*domain.PlanDay, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	days := make(map[string]*domain.PlanDay, len(c.days))
	for key, day := range c.days {
		days[key] = day
	}
	return days, c.version
}

// Refresh fetches every week, merges the successful ones into a fresh mapping
// and commits it in one step. It never fails: weeks that are missing, broken
// or unreachable simply contribute no days.
func (c *PlanCache) Refresh(ctx context.Context, matchID int64, weekStarts []time.Time) *RefreshResult {
	return c.refresh(ctx, c.Epoch(), matchID, weekStarts)
}

func (c *PlanCache) refresh(ctx context.Context, epoch uint64, matchID int64, weekStarts []time.Time) *RefreshResult {
	started := time.Now()
	result := &RefreshResult{
		CycleID: ulid.Make().String(),
		Seq:     c.seq.Add(1),
		MatchID: matchID,
		Weeks:   make([]WeekResult, len(weekStarts)),
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "plancache.Refresh",
		trace.WithAttributes(
			attribute.String("refresh.cycle_id", result.CycleID),
			attribute.Int64("refresh.match_id", matchID),
			attribute.Int("refresh.weeks", len(weekStarts)),
		),
	)
	defer span.End()

	weeks := make([]*domain.PlanWeek, len(weekStarts))

	// Every goroutine returns nil: the join waits for all weeks and keeps the successes.
	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, weekStart := range weekStarts {
		g.Go(func() error {
			week, err := c.fetcher.FetchWeek(ctx, matchID, weekStart)
			if err == nil && (week == nil || week.Days == nil) {
				err = domain.ErrMalformedWeek
			}
			result.Weeks[i] = c.weekResult(ctx, matchID, weekStart, err)
			if err == nil {
				weeks[i] = week
			}
			return nil
		})
	}
	_ = g.Wait()

	merged := make(map[string]*domain.PlanDay, len(weekStarts)*domain.DaysPerWeek)
	for i, week := range weeks {
		if week == nil {
			continue
		}
		for idx, day := range week.Days {
			if idx >= domain.DaysPerWeek {
				log.Printf("[plancache] week %s of match %d has %d days, ignoring extras",
					result.Weeks[i].WeekStart, matchID, len(week.Days))
				break
			}
			merged[domain.DayKey(weekStarts[i], idx)] = day
			result.Weeks[i].Days++
		}
	}
	result.Days = merged

	c.mu.Lock()
	if epoch == c.epoch && result.Seq > c.committedSeq {
		c.days = merged
		c.version++
		c.committedSeq = result.Seq
		result.Committed = true
		result.Version = c.version
	}
	hook := c.onCommit
	c.mu.Unlock()

	c.metrics.refreshDuration.Record(ctx, time.Since(started).Seconds())
	span.SetAttributes(
		attribute.Bool("refresh.committed", result.Committed),
		attribute.Int("refresh.days", len(merged)),
	)

	if !result.Committed {
		c.metrics.discarded.Add(ctx, 1)
		log.Printf("[plancache] cycle %s for match %d superseded, discarding %d days", result.CycleID, matchID, len(merged))
		return result
	}

	if hook != nil {
		hook(result)
	}
	return result
}

func (c *PlanCache) weekResult(ctx context.Context, matchID int64, weekStart time.Time, err error) WeekResult {
	res := WeekResult{WeekStart: domain.DateKey(weekStart), Outcome: WeekLoaded}

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrWeekNotFound):
		res.Outcome = WeekMissing
		log.Printf("[plancache] week plan missing: match=%d week=%s", matchID, res.WeekStart)
	default:
		res.Outcome = WeekFailed
		res.Error = err.Error()
		log.Printf("[plancache] week plan fetch failed: match=%d week=%s: %v", matchID, res.WeekStart, err)
	}

	c.metrics.weekFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(res.Outcome))))
	return res
}
