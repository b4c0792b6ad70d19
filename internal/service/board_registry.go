package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/healthweb/planboard/internal/domain"
)

// BoardRegistry keeps one calendar view per account
type BoardRegistry struct {
	fetcher domain.WeekPlanFetcher
	opts    SyncOptions
	now     func() time.Time

	mu     sync.Mutex
	boards map[int64]*registeredBoard
}

type registeredBoard struct {
	view     *CalendarSync
	lastUsed time.Time
}

func NewBoardRegistry(fetcher domain.WeekPlanFetcher, opts SyncOptions) *BoardRegistry {
	return &BoardRegistry{
		fetcher: fetcher,
		opts:    opts,
		now:     time.Now,
		boards:  make(map[int64]*registeredBoard),
	}
}

// Get returns the account's board, creating it on first use
func (r *BoardRegistry) Get(accountID int64) *CalendarSync {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.boards[accountID]
	if !ok {
		entry = &registeredBoard{view: NewCalendarSync(r.fetcher, r.opts)}
		r.boards[accountID] = entry
	}
	entry.lastUsed = r.now()
	return entry.view
}

// Remove drops the account's board and reports whether one existed
func (r *BoardRegistry) Remove(accountID int64) bool {
	r.mu.Lock()
	entry, ok := r.boards[accountID]
	delete(r.boards, accountID)
	r.mu.Unlock()

	if ok {
		entry.view.Close()
	}
	return ok
}

// Len returns the number of live boards
func (r *BoardRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Sweep drops boards not used within idle and returns how many were removed
func (r *BoardRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*CalendarSync
	for accountID, entry := range r.boards {
		if entry.lastUsed.Before(cutoff) {
			stale = append(stale, entry.view)
			delete(r.boards, accountID)
		}
	}
	r.mu.Unlock()

	for _, view := range stale {
		view.Close()
	}
	return len(stale)
}

// RunJanitor sweeps idle boards every interval until ctx is done
func (r *BoardRegistry) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				log.Printf("[board] dropped %d idle boards", n)
			}
		}
	}
}
