package core

import (
	"fmt"
	"time"
)

// Period is a half-open UTC window [Start, End) a summary aggregates over.
type Period struct {
	Start time.Time
	End   time.Time
	key   string
}

// MonthWindow returns the UTC window for one calendar month.
// time.Date carries month 13 into January of the next year, which gives
// the December rollover for free.
func MonthWindow(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidMonth
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Start: start,
		End:   time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC),
		key:   fmt.Sprintf("%04d-%02d", year, month),
	}, nil
}

// YearWindow returns the UTC window for one calendar year.
func YearWindow(year int) Period {
	return Period{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
		key:   fmt.Sprintf("%04d", year),
	}
}

// Key is the stable identifier of the window: "2024-01" for a month,
// "2024" for a year.
func (p Period) Key() string {
	return p.key
}

// Contains reports whether t falls inside the half-open window. The
// comparison is done in UTC regardless of t's location.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && t.Before(p.End)
}
