package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RecordID is a source identifier that may arrive as a JSON string or number.
type RecordID string

func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal record id: %w", err)
		}
		*id = RecordID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// RawRecord is one incident as supplied by a record source. Field names follow
// the upstream incident API.
type RawRecord struct {
	ID                 RecordID `json:"id"`
	DRNumber           string   `json:"drNo,omitempty"`
	AreaName           string   `json:"areaName"`
	CrimeType          string   `json:"crimeType"` // pre-classified tag, may be empty or stale
	CrimeDescription   string   `json:"crimeDesc"`
	PremiseDescription string   `json:"premiseDesc"`
	WeaponDescription  string   `json:"weaponDesc"`
	StatusDescription  string   `json:"statusDesc"`
	Location           string   `json:"location"`
	Lat                float64  `json:"lat"`
	Lon                float64  `json:"lon"`
	OccurTime          string   `json:"occurTime"` // ISO-8601 timestamp or HHMM clock, empty when absent
	OccurDate          string   `json:"occurDate,omitempty"`
}
