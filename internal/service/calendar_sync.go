package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/healthweb/planboard/internal/board"
	"github.com/healthweb/planboard/internal/domain"
)

// ErrNoVisibleRange is returned by Refresh before the calendar reported its range
var ErrNoVisibleRange = errors.New("calendar has not reported a visible range")

// SyncOptions tunes a CalendarSync
type SyncOptions struct {
	FetchConcurrency int
	DecorationDelay  time.Duration
	Location         *time.Location
	Invalidator      domain.WeekPlanInvalidator // optional
}

// CalendarSync is the state of one dashboard calendar view: the selected
// match, the visible range, the plan cache and the cells it decorates.
type CalendarSync struct {
	fetcher     domain.WeekPlanFetcher
	invalidator domain.WeekPlanInvalidator
	loc         *time.Location

	cache     *PlanCache
	board     *board.Board
	decorator *CalendarDecorator
	scheduler *DecorationScheduler

	mu         sync.Mutex
	matchID    int64
	rangeStart time.Time
	rangeEnd   time.Time
	hasRange   bool
}

// NewCalendarSync wires a plan cache, a board and its decorator together
func NewCalendarSync(fetcher domain.WeekPlanFetcher, opts SyncOptions) *CalendarSync {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	b := board.New()
	s := &CalendarSync{
		fetcher:     fetcher,
		invalidator: opts.Invalidator,
		loc:         opts.Location,
		cache:       NewPlanCache(fetcher, opts.FetchConcurrency),
		board:       b,
		decorator:   NewCalendarDecorator(b),
	}
	s.scheduler = NewDecorationScheduler(opts.DecorationDelay, s.decoratePass)
	s.cache.OnCommit(func(result *RefreshResult) {
		s.scheduler.Schedule(result.Version)
	})
	b.OnMount(s.decorateCell)
	return s
}

// MatchID returns the selected match, 0 when none
func (s *CalendarSync) MatchID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchID
}

// VisibleRange returns the last range reported by the calendar
func (s *CalendarSync) VisibleRange() (start, end time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangeStart, s.rangeEnd, s.hasRange
}

// Location is the timezone date keys are computed in
func (s *CalendarSync) Location() *time.Location {
	return s.loc
}

// OnRangeChange records the visible range and refreshes the weeks covering it
func (s *CalendarSync) OnRangeChange(ctx context.Context, start, end time.Time) (*RefreshResult, error) {
	start, end = start.In(s.loc), end.In(s.loc)

	s.mu.Lock()
	s.rangeStart, s.rangeEnd, s.hasRange = start, end, true
	matchID := s.matchID
	epoch := s.cache.Epoch()
	s.mu.Unlock()

	if matchID == 0 {
		return nil, domain.ErrNoMatchSelected
	}
	return s.cache.refresh(ctx, epoch, matchID, domain.ExpandWeeks(start, end)), nil
}

// OnMatchChange clears the cache before anything else happens, then reloads
// the visible range for the new match. The result is nil when no range is known yet.
func (s *CalendarSync) OnMatchChange(ctx context.Context, matchID int64) (*RefreshResult, error) {
	if matchID <= 0 {
		return nil, domain.ErrInvalidMatchID
	}

	s.mu.Lock()
	s.matchID = matchID
	s.cache.Reset()
	epoch := s.cache.Epoch()
	start, end, hasRange := s.rangeStart, s.rangeEnd, s.hasRange
	s.mu.Unlock()

	s.scheduler.Schedule(s.cache.Version())
	log.Printf("[board] match changed to %d", matchID)

	if !hasRange {
		return nil, nil
	}
	return s.cache.refresh(ctx, epoch, matchID, domain.ExpandWeeks(start, end)), nil
}

// Refresh reloads the visible range. With fresh set, cached upstream weeks of
// the match are invalidated first.
func (s *CalendarSync) Refresh(ctx context.Context, fresh bool) (*RefreshResult, error) {
	s.mu.Lock()
	matchID := s.matchID
	start, end, hasRange := s.rangeStart, s.rangeEnd, s.hasRange
	epoch := s.cache.Epoch()
	s.mu.Unlock()

	if matchID == 0 {
		return nil, domain.ErrNoMatchSelected
	}
	if !hasRange {
		return nil, ErrNoVisibleRange
	}

	if fresh && s.invalidator != nil {
		if err := s.invalidator.InvalidateMatch(ctx, matchID); err != nil {
			log.Printf("[board] failed to invalidate cached weeks of match %d: %v", matchID, err)
		}
	}
	return s.cache.refresh(ctx, epoch, matchID, domain.ExpandWeeks(start, end)), nil
}

// Classification returns the status of a date and whether it has been loaded
func (s *CalendarSync) Classification(dateKey string) (domain.DayStatus, bool) {
	day, loaded := s.cache.Day(dateKey)
	return domain.Classify(day), loaded
}

// Classifications returns the status of every loaded date
func (s *CalendarSync) Classifications() map[string]domain.DayStatus {
	days, _ := s.cache.Snapshot()
	statuses := make(map[string]domain.DayStatus, len(days))
	for key, day := range days {
		statuses[key] = domain.Classify(day)
	}
	return statuses
}

// Day returns the cached plan of a date
func (s *CalendarSync) Day(dateKey string) (*domain.PlanDay, bool) {
	return s.cache.Day(dateKey)
}

// MountCell is called by the calendar when it renders a day cell
func (s *CalendarSync) MountCell(dateKey string, rendered bool) error {
	if _, err := domain.ParseDateKey(dateKey, s.loc); err != nil {
		return err
	}
	s.board.Mount(dateKey, rendered)
	return nil
}

// UnmountCell is called by the calendar when a day cell leaves the view
func (s *CalendarSync) UnmountCell(dateKey string) error {
	if _, err := domain.ParseDateKey(dateKey, s.loc); err != nil {
		return err
	}
	s.board.Unmount(dateKey)
	return nil
}

// Cells returns the mounted cells and their indicators
func (s *CalendarSync) Cells() []board.CellView {
	return s.board.Cells()
}

// Cell returns one mounted cell
func (s *CalendarSync) Cell(dateKey string) (board.CellView, bool) {
	return s.board.Cell(dateKey)
}

// FlushDecorations runs a pending decoration pass immediately
func (s *CalendarSync) FlushDecorations() {
	s.scheduler.Flush()
}

// Close stops pending decoration passes
func (s *CalendarSync) Close() {
	s.scheduler.Stop()
}

// WeekStartFor returns the Monday date key of the week holding dateKey
func (s *CalendarSync) WeekStartFor(dateKey string) (string, error) {
	d, err := domain.ParseDateKey(dateKey, s.loc)
	if err != nil {
		return "", err
	}
	return domain.DateKey(domain.MondayOf(d)), nil
}

// TodaySummary describes the plan of the current day
type TodaySummary struct {
	Date      string           `json:"date"`
	WeekStart string           `json:"week_start"`
	HasPlan   bool             `json:"has_plan"`
	Note      string           `json:"note,omitempty"`
	Status    domain.DayStatus `json:"status"`
	Progress  string           `json:"progress"`
}

// Today summarizes the plan of now's calendar day, from the cache when that
// day is loaded and from the week source otherwise.
func (s *CalendarSync) Today(ctx context.Context, now time.Time) (*TodaySummary, error) {
	matchID := s.MatchID()
	if matchID == 0 {
		return nil, domain.ErrNoMatchSelected
	}

	now = now.In(s.loc)
	key := domain.DateKey(now)
	weekStart := domain.MondayOf(now)

	day, loaded := s.cache.Day(key)
	if !loaded {
		week, err := s.fetcher.FetchWeek(ctx, matchID, weekStart)
		switch {
		case err == nil && week != nil:
			if idx := domain.WeekdayIndex(now); idx < len(week.Days) {
				day = week.Days[idx]
			}
		case err == nil, errors.Is(err, domain.ErrWeekNotFound):
		default:
			log.Printf("[board] failed to load today's plan for match %d: %v", matchID, err)
		}
	}

	status := domain.Classify(day)
	summary := &TodaySummary{
		Date:      key,
		WeekStart: domain.DateKey(weekStart),
		HasPlan:   day != nil,
		Status:    status,
		Progress:  "No plan for today",
	}
	if day != nil {
		summary.Note = day.Note
		summary.Progress = fmt.Sprintf("%d workout, %d diet", len(status.WorkoutTitles), len(status.DietTitles))
	}
	return summary, nil
}

func (s *CalendarSync) decoratePass(uint64) {
	days, version := s.cache.Snapshot()
	s.decorator.DecorateAll(days, version)
}

func (s *CalendarSync) decorateCell(dateKey string) {
	day, _, version := s.cache.DayAt(dateKey)
	s.decorator.Decorate(dateKey, domain.Classify(day), version)
}
