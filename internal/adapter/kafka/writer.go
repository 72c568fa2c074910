package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/la-crime-etl/internal/config"
	"github.com/couchcryptid/la-crime-etl/internal/domain"
)

// Header keys set on every published incident.
const (
	HeaderCategory    = "category"
	HeaderSeverity    = "severity"
	HeaderProcessedAt = "processed_at"
)

// Writer produces normalized incidents to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes incidents in a single WriteMessages call. Messages are
// keyed by incident ID so updates to one incident stay on one partition.
func (w *Writer) LoadBatch(ctx context.Context, incidents []domain.ProcessedIncident) error {
	if len(incidents) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(incidents))
	for i := range incidents {
		msg, err := serializeToMessage(incidents[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d incidents: %w", len(msgs), err)
	}
	w.logger.Debug("published incidents", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(inc domain.ProcessedIncident) (kafkago.Message, error) {
	data, err := json.Marshal(inc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize incident %s: %w", inc.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(inc.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderCategory, Value: []byte(inc.Category.String())},
			{Key: HeaderSeverity, Value: []byte(inc.Severity.String())},
			{Key: HeaderProcessedAt, Value: []byte(inc.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
