package pipeline

import (
	"context"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
)

// IncidentTransformer implements Transformer by decoding a raw record and
// running it through the normalizer.
type IncidentTransformer struct {
	normalizer *domain.Normalizer
}

// NewTransformer creates an IncidentTransformer. A nil normalizer uses the
// default local-time normalizer.
func NewTransformer(normalizer *domain.Normalizer) *IncidentTransformer {
	if normalizer == nil {
		normalizer = domain.NewNormalizer()
	}
	return &IncidentTransformer{normalizer: normalizer}
}

func (t *IncidentTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.ProcessedIncident, error) {
	rec, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.ProcessedIncident{}, err
	}
	return t.normalizer.ProcessRecord(rec), nil
}
