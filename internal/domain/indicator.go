package domain

import (
	"fmt"
	"strings"
)

// IndicatorKind distinguishes the two indicator regions of a day cell
type IndicatorKind string

const (
	IndicatorWorkout IndicatorKind = "workout"
	IndicatorDiet    IndicatorKind = "diet"
)

// Indicator colors, matching the dashboard palette
const (
	colorComplete     = "rgba(34, 197, 94, 0.85)"
	colorPartial      = "rgba(234, 179, 8, 0.85)"
	colorIncomplete   = "rgba(239, 68, 68, 0.85)"
	colorWorkoutEmpty = "rgba(51, 65, 85, 0.5)"
	colorDietEmpty    = "rgba(51, 65, 85, 0.35)"
)

// Indicator is a status region attached to a rendered calendar day cell
type Indicator struct {
	Kind    IndicatorKind `json:"kind"`
	Status  Status        `json:"status"`
	Color   string        `json:"color"`
	Opacity float64       `json:"opacity"`
	Label   string        `json:"label"`
	Tooltip string        `json:"tooltip"`
}

// IndicatorFrame is the nested region of a mounted cell that holds indicators.
// ReplaceIndicators must swap the whole set in one step and refuse versions
// older than the one already applied; it reports whether the swap happened.
type IndicatorFrame interface {
	ReplaceIndicators(version uint64, indicators []Indicator) bool
}

// CellHost is the calendar widget owning the day cells.
// Frame returns false when the cell is not mounted or not fully rendered yet.
type CellHost interface {
	Frame(dateKey string) (IndicatorFrame, bool)
	MountedKeys() []string
}

// Color returns the fill color of an indicator of the given kind in this status
func (s Status) Color(kind IndicatorKind) string {
	switch s {
	case StatusComplete:
		return colorComplete
	case StatusPartial:
		return colorPartial
	case StatusIncomplete:
		return colorIncomplete
	}
	if kind == IndicatorDiet {
		return colorDietEmpty
	}
	return colorWorkoutEmpty
}

// Opacity dims indicators of days without items of that kind
func (s Status) Opacity() float64 {
	if s == StatusEmpty {
		return 0.3
	}
	return 1
}

// Indicators builds the workout and diet indicators for a classified day
func (d DayStatus) Indicators() []Indicator {
	return []Indicator{
		newIndicator(IndicatorWorkout, "Workout", d.Workout, d.WorkoutTitles),
		newIndicator(IndicatorDiet, "Diet", d.Diet, d.DietTitles),
	}
}

func newIndicator(kind IndicatorKind, label string, status Status, titles []string) Indicator {
	summary := "none"
	if len(titles) > 0 {
		summary = strings.Join(titles, ", ")
	}
	return Indicator{
		Kind:    kind,
		Status:  status,
		Color:   status.Color(kind),
		Opacity: status.Opacity(),
		Label:   label,
		Tooltip: fmt.Sprintf("%s: %s", label, summary),
	}
}
