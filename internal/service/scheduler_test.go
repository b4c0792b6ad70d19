package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type runRecorder struct {
	mu   sync.Mutex
	runs []uint64
}

func (r *runRecorder) run(version uint64) {
	r.mu.Lock()
	r.runs = append(r.runs, version)
	r.mu.Unlock()
}

func (r *runRecorder) get() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.runs...)
}

func TestDecorationScheduler_CoalescesRequests(t *testing.T) {
	rec := &runRecorder{}
	s := NewDecorationScheduler(30*time.Millisecond, rec.run)

	s.Schedule(1)
	s.Schedule(3)
	s.Schedule(2)

	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []uint64{3}, rec.get())
}

func TestDecorationScheduler_FlushRunsImmediately(t *testing.T) {
	rec := &runRecorder{}
	s := NewDecorationScheduler(time.Hour, rec.run)

	s.Schedule(7)
	s.Flush()
	assert.Equal(t, []uint64{7}, rec.get())

	// nothing pending
	s.Flush()
	assert.Equal(t, []uint64{7}, rec.get())
}

func TestDecorationScheduler_SkipsVersionsAlreadyRun(t *testing.T) {
	rec := &runRecorder{}
	s := NewDecorationScheduler(time.Hour, rec.run)

	s.Schedule(4)
	s.Flush()
	s.Schedule(4)
	s.Flush()
	s.Schedule(5)
	s.Flush()

	assert.Equal(t, []uint64{4, 5}, rec.get())
}

func TestDecorationScheduler_StopCancelsPendingPass(t *testing.T) {
	rec := &runRecorder{}
	s := NewDecorationScheduler(20*time.Millisecond, rec.run)

	s.Schedule(1)
	s.Stop()
	s.Schedule(2)
	s.Flush()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.get())
}
