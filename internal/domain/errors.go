package domain

import "errors"

// Common errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrWeekNotFound    = errors.New("no plan exists for the requested week")
	ErrMalformedWeek   = errors.New("week plan response is malformed")
	ErrNoMatchSelected = errors.New("no match selected")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMatchID  = errors.New("match id must be positive")
)
