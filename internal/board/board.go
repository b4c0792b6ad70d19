// Package board is an in-process calendar widget: it owns the rendered day
// cells of one dashboard view and the indicators attached to them.
package board

import (
	"sort"
	"sync"

	"github.com/healthweb/planboard/internal/domain"
)

// MountHook is called after a cell is mounted with a rendered frame
type MountHook func(dateKey string)

// Board holds the day cells currently mounted by the calendar view
type Board struct {
	mu      sync.RWMutex
	cells   map[string]*Cell
	onMount MountHook
}

// Cell is a mounted calendar day. Its frame is nil until the cell's nested
// structure has been rendered.
type Cell struct {
	DateKey string
	frame   *Frame
}

// Frame is the nested region of a cell that carries status indicators
type Frame struct {
	mu         sync.Mutex
	version    uint64
	indicators []domain.Indicator
}

// CellView is a read-only copy of a cell for rendering
type CellView struct {
	DateKey    string             `json:"date"`
	Rendered   bool               `json:"rendered"`
	Version    uint64             `json:"version"`
	Indicators []domain.Indicator `json:"indicators"`
}

func New() *Board {
	return &Board{cells: make(map[string]*Cell)}
}

// OnMount registers the hook fired when a rendered cell is mounted
func (b *Board) OnMount(hook MountHook) {
	b.mu.Lock()
	b.onMount = hook
	b.mu.Unlock()
}

// Mount adds or re-renders the cell for dateKey. A cell mounted with
// rendered=false has no frame and cannot carry indicators; re-mounting a
// rendered cell that way drops its frame and indicators.
func (b *Board) Mount(dateKey string, rendered bool) {
	b.mu.Lock()
	cell, ok := b.cells[dateKey]
	if !ok {
		cell = &Cell{DateKey: dateKey}
		b.cells[dateKey] = cell
	}
	switch {
	case !rendered:
		cell.frame = nil
	case cell.frame == nil:
		cell.frame = &Frame{}
	}
	hook := b.onMount
	b.mu.Unlock()

	if rendered && hook != nil {
		hook(dateKey)
	}
}

// Unmount removes the cell and everything attached to it
func (b *Board) Unmount(dateKey string) {
	b.mu.Lock()
	delete(b.cells, dateKey)
	b.mu.Unlock()
}

// Frame implements domain.CellHost
func (b *Board) Frame(dateKey string) (domain.IndicatorFrame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cell, ok := b.cells[dateKey]
	if !ok || cell.frame == nil {
		return nil, false
	}
	return cell.frame, true
}

// MountedKeys implements domain.CellHost; keys are sorted
func (b *Board) MountedKeys() []string {
	b.mu.RLock()
	keys := make([]string, 0, len(b.cells))
	for key := range b.cells {
		keys = append(keys, key)
	}
	b.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Cells returns a snapshot of all mounted cells ordered by date
func (b *Board) Cells() []CellView {
	b.mu.RLock()
	views := make([]CellView, 0, len(b.cells))
	for key, cell := range b.cells {
		view := CellView{DateKey: key, Indicators: []domain.Indicator{}}
		if cell.frame != nil {
			view.Rendered = true
			view.Version, view.Indicators = cell.frame.snapshot()
		}
		views = append(views, view)
	}
	b.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].DateKey < views[j].DateKey })
	return views
}

// Cell returns a snapshot of one mounted cell
func (b *Board) Cell(dateKey string) (CellView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cell, ok := b.cells[dateKey]
	if !ok {
		return CellView{}, false
	}
	view := CellView{DateKey: dateKey, Indicators: []domain.Indicator{}}
	if cell.frame != nil {
		view.Rendered = true
		view.Version, view.Indicators = cell.frame.snapshot()
	}
	return view, true
}

// ReplaceIndicators clears the frame's indicators and attaches the new set in
// one step. Versions older than the applied one are rejected.
func (f *Frame) ReplaceIndicators(version uint64, indicators []domain.Indicator) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if version < f.version {
		return false
	}
	f.version = version
	f.indicators = append([]domain.Indicator(nil), indicators...)
	return true
}

func (f *Frame) snapshot() (uint64, []domain.Indicator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, append([]domain.Indicator{}, f.indicators...)
}
