package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ProcessedIncident is an incident stamped with its processing time, the
// payload published to the sink topic.
type ProcessedIncident struct {
	Incident
	ProcessedAt time.Time `json:"processedAt"`
}

// ParseRawEvent decodes a RawRecord from a message value.
func ParseRawEvent(raw RawEvent) (RawRecord, error) {
	var rec RawRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return RawRecord{}, fmt.Errorf("parse raw event: %w", err)
	}
	return rec, nil
}

// ProcessRecord normalizes a record and stamps it with the package clock.
func (n *Normalizer) ProcessRecord(rec RawRecord) ProcessedIncident {
	return ProcessedIncident{
		Incident:    n.Normalize(rec),
		ProcessedAt: clock.Now().UTC(),
	}
}
