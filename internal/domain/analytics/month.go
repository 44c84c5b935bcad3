package analytics

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// Month is a UTC calendar month.
type Month struct {
	year  int
	month time.Month
}

// NewMonth builds a Month, normalizing out-of-range month numbers (13 -> January next year).
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{year: t.Year(), month: t.Month()}
}

// ParseMonth parses a YYYY-MM label.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrMalformedMonth, s)
	}
	return Month{year: t.Year(), month: t.Month()}, nil
}

// MonthOf truncates an instant to its UTC calendar month, ignoring time of day and zone.
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{year: u.Year(), month: u.Month()}
}

func (m Month) Year() int { return m.year }
func (m Month) Month() time.Month { return m.month }
func (m Month) IsZero() bool { return m.year == 0 && m.month == 0 }
func (m Month) Start() time.Time { return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC) }
func (m Month) AddMonths(n int) Month { return NewMonth(m.year, m.month+time.Month(n)) }
func (m Month) Next() Month { return m.AddMonths(1) }

func (m Month) Before(o Month) bool {
	if m.year != o.year {
		return m.year < o.year
	}
	return m.month < o.month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

// MonthBoundary is the snapshot frame for one month. NextMonthStart is the
// end-of-month comparison point: a state "as of EOD" is the state at that instant.
type MonthBoundary struct {
	Month          Month
	MonthStart     time.Time
	NextMonthStart time.Time
	MonthEndDate   time.Time // midnight of the last calendar day
}

// BoundaryFor returns the boundary of month m.
func BoundaryFor(m Month) MonthBoundary {
	next := m.Next().Start()
	return MonthBoundary{
		Month:          m,
		MonthStart:     m.Start(),
		NextMonthStart: next,
		MonthEndDate:   next.AddDate(0, 0, -1),
	}
}

// Contains reports whether t falls within [MonthStart, NextMonthStart).
func (b MonthBoundary) Contains(t time.Time) bool {
	return !t.Before(b.MonthStart) && t.Before(b.NextMonthStart)
}

// BuildAxis returns one boundary per month from start to end inclusive, ascending.
func BuildAxis(start, end Month) ([]MonthBoundary, error) {
	if end.Before(start) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	axis := make([]MonthBoundary, 0, 12)
	for m := start; !end.Before(m); m = m.Next() {
		axis = append(axis, BoundaryFor(m))
	}
	return axis, nil
}

// Range is an inclusive window of calendar months.
type Range struct {
	Start Month
	End   Month
}

// ParseRange parses a pair of YYYY-MM labels and validates their order.
func ParseRange(start, end string) (Range, error) {
	s, err := ParseMonth(start)
	if err != nil {
		return Range{}, fmt.Errorf("start month: %w", err)
	}
	e, err := ParseMonth(end)
	if err != nil {
		return Range{}, fmt.Errorf("end month: %w", err)
	}
	if e.Before(s) {
		return Range{}, &InvalidRangeError{Start: s, End: e}
	}
	return Range{Start: s, End: e}, nil
}

// TrailingRange returns the window of the given number of months ending with the month of now.
func TrailingRange(now time.Time, months int) Range {
	return WindowEndingAt(MonthOf(now), months)
}

// WindowEndingAt returns the window of the given number of months ending with end.
func WindowEndingAt(end Month, months int) Range {
	if months < 1 {
		months = 1
	}
	return Range{Start: end.AddMonths(-(months - 1)), End: end}
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
