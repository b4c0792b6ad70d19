package domain

import (
	"fmt"
	"time"
)

// DateKeyLayout is the calendar-day key format (local date, never UTC-shifted)
const DateKeyLayout = "2006-01-02"

// WeekdayIndex returns the Monday-first position of t's weekday (Monday=0 ... Sunday=6)
func WeekdayIndex(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 6
	}
	return int(t.Weekday()) - 1
}

// AddDays moves t by n calendar days and truncates to midnight in t's location.
// Calendar arithmetic goes through time.Date so DST transitions never shift the date.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// MondayOf returns the Monday on or before t
func MondayOf(t time.Time) time.Time {
	return AddDays(t, -WeekdayIndex(t))
}

// DateKey formats t as YYYY-MM-DD in its own location
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// DayKey returns the date key of the dayIndex-th day of the week starting at weekStart
func DayKey(weekStart time.Time, dayIndex int) string {
	return DateKey(AddDays(weekStart, dayIndex))
}

// ParseDateKey parses a YYYY-MM-DD key as local midnight in loc (time.Local when nil)
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
	}
	return t, nil
}

// ExpandWeeks returns the Monday of every week intersecting the visible range,
// ascending and duplicate-free. The upper bound is inclusive: the week holding
// visibleEnd is part of the result even when visibleEnd is itself a Monday.
func ExpandWeeks(visibleStart, visibleEnd time.Time) []time.Time {
	first := MondayOf(visibleStart)
	last := MondayOf(visibleEnd.In(visibleStart.Location()))
	if last.Before(first) {
		return nil
	}

	weeks := make([]time.Time, 0, int(last.Sub(first).Hours()/24/DaysPerWeek)+1)
	for w := first; !w.After(last); w = AddDays(w, DaysPerWeek) {
		weeks = append(weeks, w)
	}
	return weeks
}
