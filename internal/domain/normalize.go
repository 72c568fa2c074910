package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	unknownLabel       = "Unknown"
	unknownTime        = "Unknown"
	unknownStreet      = "Unknown street"
	noDescription      = "No description"
	noPremise          = "No premise noted"
	unknownStatus      = "Status unknown"
	descriptionSep     = " · "
	displayTimeLayout  = "2006/01/02 15:04"
	displayClockLayout = "15:04"
)

// isoLayouts are tried in order. Layouts without a zone offset are read in
// the display location, except the date-only form which browsers treat as UTC.
var isoLayouts = []struct {
	layout string
	utc    bool
}{
	{layout: time.RFC3339Nano},
	{layout: "2006-01-02T15:04:05Z07:00"},
	{layout: "2006-01-02T15:04Z07:00"},
	{layout: "2006-01-02T15:04:05.999999999"},
	{layout: "2006-01-02 15:04:05.999999999"},
	{layout: "2006-01-02T15:04"},
	{layout: "2006-01-02", utc: true},
}

// IDGenerator produces identifiers for records that arrive without one.
type IDGenerator func() string

// Normalizer converts raw records into incidents. The zero value is not
// usable; build one with NewNormalizer.
type Normalizer struct {
	loc   *time.Location
	newID IDGenerator
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithLocation sets the time zone used to display occurrence timestamps.
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithIDGenerator replaces the UUIDv7 generator used for missing identifiers.
func WithIDGenerator(gen IDGenerator) NormalizerOption {
	return func(n *Normalizer) {
		if gen != nil {
			n.newID = gen
		}
	}
}

// NewNormalizer creates a Normalizer that displays times in the local zone.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		loc:   time.Local,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Normalize converts a record using the default Normalizer.
func Normalize(rec RawRecord) Incident {
	return defaultNormalizer.Normalize(rec)
}

// Normalize derives the display fields of an incident from a raw record.
// Coordinates pass through unchanged.
func (n *Normalizer) Normalize(rec RawRecord) Incident {
	id := strings.TrimSpace(string(rec.ID))
	if id == "" {
		id = n.newID()
	}

	return Incident{
		ID:          id,
		Label:       orDefault(rec.AreaName, unknownLabel),
		Category:    Classify(rec.CrimeDescription, rec.CrimeType),
		DateTime:    n.FormatOccurrence(rec.OccurTime),
		Street:      orDefault(strings.TrimSpace(rec.Location), unknownStreet),
		Description: describe(rec),
		Severity:    EstimateSeverity(rec.CrimeDescription, rec.WeaponDescription),
		Lat:         rec.Lat,
		Lon:         rec.Lon,
	}
}

// NormalizeAll converts records in order.
func (n *Normalizer) NormalizeAll(records []RawRecord) []Incident {
	out := make([]Incident, len(records))
	for i := range records {
		out[i] = n.Normalize(records[i])
	}
	return out
}

// FormatOccurrence renders an occurrence time. HHMM clock strings become
// "HH:MM"; ISO-8601 timestamps become "YYYY/MM/DD HH:MM" in the display
// location. Anything else is "Unknown".
func (n *Normalizer) FormatOccurrence(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownTime
	}
	if isClockDigits(raw) {
		return formatClock(raw)
	}
	t, ok := ParseTimestamp(raw, n.loc)
	if !ok {
		return unknownTime
	}
	return t.In(n.loc).Format(displayTimeLayout)
}

// ParseTimestamp parses an ISO-8601 occurrence timestamp. Values without an
// offset are read in loc; a bare date is read as UTC.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	for _, l := range isoLayouts {
		loc := loc
		if l.utc {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation(l.layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isClockDigits(s string) bool {
	if len(s) < 3 || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// formatClock zero-pads a 3–4 digit 24-hour clock ("930" → "09:30").
func formatClock(hhmm string) string {
	if len(hhmm) == 3 {
		hhmm = "0" + hhmm
	}
	hour, errH := strconv.Atoi(hhmm[:2])
	mins, errM := strconv.Atoi(hhmm[2:])
	if errH != nil || errM != nil || hour > 23 || mins > 59 {
		return unknownTime
	}
	return time.Date(0, 1, 1, hour, mins, 0, 0, time.UTC).Format(displayClockLayout)
}

func describe(rec RawRecord) string {
	return strings.Join([]string{
		orDefault(rec.CrimeDescription, noDescription),
		orDefault(rec.PremiseDescription, noPremise),
		orDefault(rec.StatusDescription, unknownStatus),
	}, descriptionSep)
}

// orDefault substitutes fallback for an empty value. Only the street is
// trimmed before the check.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
