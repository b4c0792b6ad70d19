package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/healthweb/planboard/internal/domain"
)

// fakeFetcher serves weeks keyed by "<matchID>/<weekStart>"
type fakeFetcher struct {
	mu     sync.Mutex
	weeks  map[string]*domain.PlanWeek
	errs   map[string]error
	gates  map[string]chan struct{}
	start  chan string
	calls  []string
	active int
	peak   int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		weeks: make(map[string]*domain.PlanWeek),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func fetchKey(matchID int64, weekStart string) string {
	return fmt.Sprintf("%d/%s", matchID, weekStart)
}

func (f *fakeFetcher) put(matchID int64, week *domain.PlanWeek) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weeks[fetchKey(matchID, week.WeekStart)] = week
}

func (f *fakeFetcher) fail(matchID int64, weekStart string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[fetchKey(matchID, weekStart)] = err
}

// gate blocks fetches of the week until the returned channel is closed
func (f *fakeFetcher) gate(matchID int64, weekStart string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[fetchKey(matchID, weekStart)] = ch
	return ch
}

func (f *fakeFetcher) FetchWeek(ctx context.Context, matchID int64, weekStart time.Time) (*domain.PlanWeek, error) {
	key := fetchKey(matchID, domain.DateKey(weekStart))

	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	gate := f.gates[key]
	started := f.start
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if started != nil {
		started <- key
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if week, ok := f.weeks[key]; ok {
		return week, nil
	}
	return nil, domain.ErrWeekNotFound
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fullWeek builds a 7-day week whose days each carry one workout with the given mark
func fullWeek(weekStart string, mark domain.StatusMark) *domain.PlanWeek {
	days := make([]*domain.PlanDay, domain.DaysPerWeek)
	for i := range days {
		days[i] = &domain.PlanDay{
			ID:       int64(i + 1),
			DayIndex: i,
			Items: []domain.PlanItem{
				{ItemType: domain.ItemTypeWorkout, Title: fmt.Sprintf("%s-w%d", weekStart, i), StatusMark: mark},
			},
		}
	}
	return &domain.PlanWeek{WeekStart: weekStart, Title: "week " + weekStart, Days: days}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
