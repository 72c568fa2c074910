package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned for date ranges that are empty or inverted.
var ErrInvalidRange = errors.New("invalid date range")

const dateLayout = "2006-01-02"

// DateRange is a half-open interval [From, To) of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// FromDate returns the inclusive lower bound as YYYY-MM-DD.
func (r DateRange) FromDate() string { return r.From.Format(dateLayout) }

// ToDate returns the exclusive upper bound as YYYY-MM-DD.
func (r DateRange) ToDate() string { return r.To.Format(dateLayout) }

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// Timeframe is a preset lookback window offered by the dashboard.
type Timeframe string

const (
	Last30Days   Timeframe = "30d"
	Last90Days   Timeframe = "90d"
	Last12Months Timeframe = "12m"
)

// ParseTimeframe accepts the short codes and the dashboard labels.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch s {
	case "30d", "Last 30 days":
		return Last30Days, true
	case "90d", "Last 90 days":
		return Last90Days, true
	case "12m", "Last 12 months":
		return Last12Months, true
	default:
		return "", false
	}
}

func (tf Timeframe) days() int {
	switch tf {
	case Last90Days:
		return 90
	case Last12Months:
		return 365
	default:
		return 30
	}
}

// Range returns the window ending today (inclusive) in now's location.
func (tf Timeframe) Range(now time.Time) DateRange {
	today := startOfDay(now)
	return DateRange{
		From: today.AddDate(0, 0, -tf.days()),
		To:   today.AddDate(0, 0, 1),
	}
}

// CurrentRange evaluates the timeframe against the package clock.
func (tf Timeframe) CurrentRange() DateRange {
	return tf.Range(clock.Now())
}

// CustomRange builds a range from two inclusive YYYY-MM-DD dates. Dots are
// accepted as separators ("2024.01.31").
func CustomRange(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation(dateLayout, normalizeDate(from), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: from %q", ErrInvalidRange, from)
	}
	last, err := time.ParseInLocation(dateLayout, normalizeDate(to), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: to %q", ErrInvalidRange, to)
	}
	end := last.AddDate(0, 0, 1)
	if !start.Before(end) {
		return DateRange{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from, to)
	}
	return DateRange{From: start, To: end}, nil
}

func normalizeDate(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '.' {
			b[i] = '-'
		}
	}
	return string(b)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
