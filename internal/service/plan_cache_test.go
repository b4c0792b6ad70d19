package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthweb/planboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeWeeks() []time.Time {
	return []time.Time{day(2024, 6, 3), day(2024, 6, 10), day(2024, 6, 17)}
}

func TestPlanCache_PartialFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(1, fullWeek("2024-06-03", domain.MarkComplete))
	fetcher.fail(1, "2024-06-10", errors.New("connection reset"))
	fetcher.put(1, fullWeek("2024-06-17", domain.MarkIncomplete))

	cache := NewPlanCache(fetcher, 3)
	result := cache.Refresh(context.Background(), 1, threeWeeks())

	require.True(t, result.Committed)
	assert.Len(t, result.Days, 14)
	for i := 0; i < 7; i++ {
		_, loaded := cache.Day(domain.DayKey(day(2024, 6, 3), i))
		assert.True(t, loaded)
		_, loaded = cache.Day(domain.DayKey(day(2024, 6, 10), i))
		assert.False(t, loaded, "failed week must not contribute days")
		_, loaded = cache.Day(domain.DayKey(day(2024, 6, 17), i))
		assert.True(t, loaded)
	}

	assert.Equal(t, WeekLoaded, result.Weeks[0].Outcome)
	assert.Equal(t, WeekFailed, result.Weeks[1].Outcome)
	assert.Contains(t, result.Weeks[1].Error, "connection reset")
	assert.Equal(t, WeekLoaded, result.Weeks[2].Outcome)
	assert.Equal(t, 7, result.Weeks[2].Days)
}

func TestPlanCache_MissingAndMalformedWeeks(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(1, &domain.PlanWeek{WeekStart: "2024-06-03"}) // no days array
	fetcher.put(1, &domain.PlanWeek{WeekStart: "2024-06-17", Days: []*domain.PlanDay{nil, {ID: 9}}})

	cache := NewPlanCache(fetcher, 2)
	result := cache.Refresh(context.Background(), 1, threeWeeks())

	assert.Equal(t, WeekFailed, result.Weeks[0].Outcome)
	assert.Equal(t, WeekMissing, result.Weeks[1].Outcome)
	assert.Equal(t, WeekLoaded, result.Weeks[2].Outcome)

	d, loaded := cache.Day("2024-06-17")
	assert.True(t, loaded, "null day is loaded")
	assert.Nil(t, d)
	d, loaded = cache.Day("2024-06-18")
	assert.True(t, loaded)
	assert.Equal(t, int64(9), d.ID)
	_, loaded = cache.Day("2024-06-19")
	assert.False(t, loaded)
}

func TestPlanCache_IgnoresDaysPastSunday(t *testing.T) {
	fetcher := newFakeFetcher()
	week := fullWeek("2024-06-03", domain.MarkComplete)
	week.Days = append(week.Days, &domain.PlanDay{ID: 99})
	fetcher.put(1, week)

	cache := NewPlanCache(fetcher, 1)
	result := cache.Refresh(context.Background(), 1, []time.Time{day(2024, 6, 3)})

	assert.Equal(t, 7, result.Weeks[0].Days)
	_, loaded := cache.Day("2024-06-10")
	assert.False(t, loaded)
}

func TestPlanCache_CommitReplacesWholeMapping(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(1, fullWeek("2024-06-03", domain.MarkComplete))
	fetcher.put(1, fullWeek("2024-07-01", domain.MarkComplete))
	cache := NewPlanCache(fetcher, 2)
	ctx := context.Background()

	cache.Refresh(ctx, 1, []time.Time{day(2024, 6, 3)})
	v1 := cache.Version()
	cache.Refresh(ctx, 1, []time.Time{day(2024, 7, 1)})

	_, loaded := cache.Day("2024-06-03")
	assert.False(t, loaded)
	_, loaded = cache.Day("2024-07-01")
	assert.True(t, loaded)
	assert.Greater(t, cache.Version(), v1)
}

func TestPlanCache_FetchesConcurrently(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.start = make(chan string, 3)
	gates := make([]chan struct{}, 0, 3)
	for _, w := range threeWeeks() {
		gates = append(gates, fetcher.gate(1, domain.DateKey(w)))
	}

	cache := NewPlanCache(fetcher, 7)
	done := make(chan *RefreshResult, 1)
	go func() { done <- cache.Refresh(context.Background(), 1, threeWeeks()) }()

	for i := 0; i < 3; i++ {
		select {
		case <-fetcher.start:
		case <-time.After(2 * time.Second):
			t.Fatal("fetches were not issued concurrently")
		}
	}
	for _, g := range gates {
		close(g)
	}

	select {
	case result := <-done:
		assert.True(t, result.Committed)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not settle")
	}
	assert.Equal(t, 3, fetcher.peak)
}

func TestPlanCache_SupersededCycleDiscarded(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(1, fullWeek("2024-06-03", domain.MarkIncomplete))
	fetcher.put(1, fullWeek("2024-07-01", domain.MarkComplete))
	slow := fetcher.gate(1, "2024-06-03")
	fetcher.start = make(chan string, 2)

	cache := NewPlanCache(fetcher, 2)
	ctx := context.Background()

	older := make(chan *RefreshResult, 1)
	go func() { older <- cache.Refresh(ctx, 1, []time.Time{day(2024, 6, 3)}) }()
	<-fetcher.start

	newer := cache.Refresh(ctx, 1, []time.Time{day(2024, 7, 1)})
	require.True(t, newer.Committed)

	close(slow)
	late := <-older
	assert.False(t, late.Committed)

	_, loaded := cache.Day("2024-06-03")
	assert.False(t, loaded, "late cycle must not overwrite the newer commit")
	_, loaded = cache.Day("2024-07-01")
	assert.True(t, loaded)
}

func TestPlanCache_ResetDiscardsInFlightCycle(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(1, fullWeek("2024-06-03", domain.MarkComplete))
	gate := fetcher.gate(1, "2024-06-03")
	fetcher.start = make(chan string, 1)

	cache := NewPlanCache(fetcher, 1)
	var hookCalls int
	cache.OnCommit(func(*RefreshResult) { hookCalls++ })

	done := make(chan *RefreshResult, 1)
	go func() { done <- cache.Refresh(context.Background(), 1, []time.Time{day(2024, 6, 3)}) }()
	<-fetcher.start

	cache.Reset()
	close(gate)
	result := <-done

	assert.False(t, result.Committed)
	assert.Equal(t, 0, hookCalls)
	snapshot, _ := cache.Snapshot()
	assert.Empty(t, snapshot)
}

func TestPlanCache_OnCommitFiresOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put(1, fullWeek("2024-06-03", domain.MarkComplete))
	cache := NewPlanCache(fetcher, 1)

	var got []*RefreshResult
	cache.OnCommit(func(r *RefreshResult) { got = append(got, r) })
	result := cache.Refresh(context.Background(), 1, []time.Time{day(2024, 6, 3)})

	require.Len(t, got, 1)
	assert.Same(t, result, got[0])
	assert.NotEmpty(t, result.CycleID)
	assert.Equal(t, cache.Version(), result.Version)
}
