package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("240104927"),
		Value:     []byte(`{"id":"240104927"}`),
		Topic:     "raw-crime-incidents",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("lapd")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("240104927"), raw.Key)
	assert.JSONEq(t, `{"id":"240104927"}`, string(raw.Value))
	assert.Equal(t, "raw-crime-incidents", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "lapd", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	inc := domain.ProcessedIncident{
		Incident: domain.Incident{
			ID:          "240104927",
			Label:       "Central",
			Category:    domain.CategoryAssault,
			DateTime:    "2024/03/02 21:45",
			Street:      "700 S FIGUEROA ST",
			Description: "BATTERY - SIMPLE ASSAULT · SIDEWALK",
			Severity:    domain.SeverityHigh,
			Lat:         34.0488,
			Lon:         -118.2596,
		},
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(inc)
	require.NoError(t, err)

	assert.Equal(t, []byte("240104927"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, HeaderCategory, msg.Headers[0].Key)
	assert.Equal(t, []byte("ASSAULT"), msg.Headers[0].Value)
	assert.Equal(t, HeaderSeverity, msg.Headers[1].Key)
	assert.Equal(t, []byte("High"), msg.Headers[1].Value)
	assert.Equal(t, HeaderProcessedAt, msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "ASSAULT", decoded["type"])
	assert.Equal(t, "High", decoded["severity"])
	assert.Equal(t, "Central", decoded["label"])
	assert.Equal(t, "2024-03-10T18:00:00Z", decoded["processedAt"])
}
