package domain

import "time"

// Period is a date range attached to period-bearing payloads. To == nil means
// open-ended / currently running. Bounds are day-resolution dates at UTC
// midnight; both ends are inclusive.
type Period struct {
	From time.Time  `json:"fom"`
	To   *time.Time `json:"tom,omitempty"`
}

// NewPeriod builds a closed period.
func NewPeriod(from, to time.Time) Period {
	t := DateOf(to)
	return Period{From: DateOf(from), To: &t}
}

// NewOpenPeriod builds an open-ended period.
func NewOpenPeriod(from time.Time) Period {
	return Period{From: DateOf(from)}
}

// MonthPeriod expands a month-resolution period to day resolution: the first
// day of the from month through the last day of the to month.
func MonthPeriod(fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) Period {
	from := time.Date(fromYear, fromMonth, 1, 0, 0, 0, 0, time.UTC)
	last := LastOfMonth(time.Date(toYear, toMonth, 1, 0, 0, 0, 0, time.UTC))
	return Period{From: from, To: &last}
}

// OpenMonthPeriod expands an open month-resolution period to day resolution.
func OpenMonthPeriod(fromYear int, fromMonth time.Month) Period {
	return Period{From: time.Date(fromYear, fromMonth, 1, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to a UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth returns the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// LastOfMonth returns the last day of t's month.
func LastOfMonth(t time.Time) time.Time {
	return FirstOfMonth(t).AddDate(0, 1, -1)
}

// IsOpen reports whether the period is open-ended.
func (p Period) IsOpen() bool { return p.To == nil }

// End returns the exclusive end of the period (day after To) and whether the
// period is bounded.
func (p Period) End() (time.Time, bool) {
	if p.To == nil {
		return time.Time{}, false
	}
	return p.To.AddDate(0, 0, 1), true
}

// ContainsDay reports whether d falls inside the period.
func (p Period) ContainsDay(d time.Time) bool {
	d = DateOf(d)
	if d.Before(p.From) {
		return false
	}
	if p.To == nil {
		return true
	}
	return !d.After(*p.To)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(q Period) bool {
	if p.To != nil && q.From.After(*p.To) {
		return false
	}
	if q.To != nil && p.From.After(*q.To) {
		return false
	}
	return true
}

// Equal compares period bounds by value.
func (p Period) Equal(q Period) bool {
	if !p.From.Equal(q.From) {
		return false
	}
	if (p.To == nil) != (q.To == nil) {
		return false
	}
	return p.To == nil || p.To.Equal(*q.To)
}
