package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is a three-level risk tier derived from incident text.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

var severityNames = [...]string{"Low", "Medium", "High"}

// Severities returns all severities from lowest to highest.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh}
}

func (s Severity) Valid() bool {
	return s >= SeverityLow && s <= SeverityHigh
}

func (s Severity) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity matches a severity name case-insensitively.
func ParseSeverity(v string) (Severity, bool) {
	v = strings.TrimSpace(v)
	for i, name := range severityNames {
		if strings.EqualFold(name, v) {
			return Severity(i), true
		}
	}
	return SeverityLow, false
}

func (s Severity) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal severity: unknown value %d", int(s))
	}
	return json.Marshal(severityNames[s])
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal severity: %w", err)
	}
	parsed, ok := ParseSeverity(v)
	if !ok {
		return fmt.Errorf("unmarshal severity: unknown value %q", v)
	}
	*s = parsed
	return nil
}
