package service

import (
	"github.com/healthweb/planboard/internal/domain"
)

// CalendarDecorator paints day statuses onto the cells of a calendar widget
type CalendarDecorator struct {
	host domain.CellHost
}

func NewCalendarDecorator(host domain.CellHost) *CalendarDecorator {
	return &CalendarDecorator{host: host}
}

// Decorate replaces the indicators of one cell with a workout and a diet
// indicator. Cells that are not mounted or not rendered yet are skipped, as
// are decorations older than what the cell already shows.
func (d *CalendarDecorator) Decorate(dateKey string, status domain.DayStatus, version uint64) bool {
	frame, ok := d.host.Frame(dateKey)
	if !ok {
		return false
	}
	return frame.ReplaceIndicators(version, status.Indicators())
}

// DecorateAll decorates every mounted cell from a cache snapshot; cells whose
// date is absent from the snapshot get EMPTY indicators. It returns the number
// of cells updated.
func (d *CalendarDecorator) DecorateAll(days map[string]*domain.PlanDay, version uint64) int {
	updated := 0
	for _, key := range d.host.MountedKeys() {
		if d.Decorate(key, domain.Classify(days[key]), version) {
			updated++
		}
	}
	return updated
}
