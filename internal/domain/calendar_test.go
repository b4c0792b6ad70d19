package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestExpandWeeks_MonthView(t *testing.T) {
	weeks := ExpandWeeks(date(2024, 1, 31), date(2024, 3, 2))

	require.Len(t, weeks, 5)
	assert.Equal(t, "2024-01-29", DateKey(weeks[0]))
	assert.Equal(t, "2024-02-26", DateKey(weeks[4]))
	for i := 1; i < len(weeks); i++ {
		assert.Equal(t, DateKey(AddDays(weeks[i-1], 7)), DateKey(weeks[i]))
	}
}

func TestExpandWeeks_Properties(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"single day", date(2024, 6, 5), date(2024, 6, 5)},
		{"sunday start", date(2024, 6, 2), date(2024, 6, 30)},
		{"monday end", date(2024, 4, 29), date(2024, 6, 10)},
		{"year boundary", date(2023, 12, 25), date(2024, 2, 4)},
		{"leap day", date(2024, 2, 26), date(2024, 3, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weeks := ExpandWeeks(tt.start, tt.end)
			require.NotEmpty(t, weeks)

			covered := map[string]bool{}
			for i, w := range weeks {
				assert.Equal(t, time.Monday, w.Weekday(), "week %d is not a Monday", i)
				if i > 0 {
					assert.True(t, weeks[i-1].Before(w))
					assert.Equal(t, DateKey(AddDays(weeks[i-1], 7)), DateKey(w))
				}
				covered[DateKey(w)] = true
			}

			for d := tt.start; !d.After(tt.end); d = AddDays(d, 1) {
				assert.True(t, covered[DateKey(MondayOf(d))], "day %s not covered", DateKey(d))
			}
		})
	}
}

func TestExpandWeeks_InclusiveMondayEnd(t *testing.T) {
	weeks := ExpandWeeks(date(2024, 6, 3), date(2024, 6, 10))

	require.Len(t, weeks, 2)
	assert.Equal(t, "2024-06-10", DateKey(weeks[1]))
}

func TestExpandWeeks_ReversedRange(t *testing.T) {
	assert.Empty(t, ExpandWeeks(date(2024, 6, 20), date(2024, 6, 1)))
}

func TestMondayOf(t *testing.T) {
	assert.Equal(t, "2024-06-03", DateKey(MondayOf(date(2024, 6, 3))))
	assert.Equal(t, "2024-06-03", DateKey(MondayOf(date(2024, 6, 7))))
	assert.Equal(t, "2024-06-03", DateKey(MondayOf(date(2024, 6, 9))), "sunday steps back six days")
}

func TestDayKey_LocalCalendar(t *testing.T) {
	assert.Equal(t, "2024-06-07", DayKey(date(2024, 6, 3), 4))

	// Late evening in a zone east of UTC must not roll back to the previous UTC date.
	seoul := time.FixedZone("KST", 9*60*60)
	weekStart := time.Date(2024, 6, 3, 0, 30, 0, 0, seoul)
	assert.Equal(t, "2024-06-03", DayKey(weekStart, 0))
	assert.Equal(t, "2024-06-09", DayKey(weekStart, 6))
}

func TestAddDays_AcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	weekStart := time.Date(2024, 3, 25, 0, 0, 0, 0, berlin)
	prev := AddDays(weekStart, -7)
	assert.Equal(t, "2024-03-18", DateKey(prev))

	weeks := ExpandWeeks(time.Date(2024, 3, 20, 0, 0, 0, 0, berlin), time.Date(2024, 4, 2, 0, 0, 0, 0, berlin))
	require.Len(t, weeks, 3)
	assert.Equal(t, "2024-04-01", DateKey(weeks[2]))
}

func TestParseDateKey(t *testing.T) {
	d, err := ParseDateKey("2024-06-07", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4, WeekdayIndex(d))

	_, err = ParseDateKey("07/06/2024", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
