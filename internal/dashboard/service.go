// Package dashboard assembles the incident snapshot shown on the map view:
// it fetches raw records for a filter, normalizes them and aggregates the
// category mix.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/observability"
	"github.com/couchcryptid/la-crime-etl/internal/source"
)

// MaxResults is the hard cap on incidents returned in one snapshot.
const MaxResults = 1000

// ErrSourceUnavailable wraps any record source failure. The dashboard treats
// it as recoverable: the user can adjust filters and retry.
var ErrSourceUnavailable = errors.New("record source unavailable")

// Snapshot is the result of one fetch-normalize-aggregate cycle.
type Snapshot struct {
	Total     int                       `json:"total"`
	Cap       int                       `json:"cap"`
	Truncated bool                      `json:"truncated"`
	Incidents []domain.Incident         `json:"incidents"`
	Mix       []domain.CategoryMixEntry `json:"mix"`
	FetchedAt time.Time                 `json:"fetchedAt"`
}

// Service builds snapshots from a record source.
type Service struct {
	source     source.RecordSource
	normalizer *domain.Normalizer
	limit      int
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithLimit caps the number of records fetched per snapshot. Values outside
// 1..MaxResults are clamped.
func WithLimit(n int) Option {
	return func(s *Service) {
		switch {
		case n <= 0:
			s.limit = MaxResults
		case n > MaxResults:
			s.limit = MaxResults
		default:
			s.limit = n
		}
	}
}

// WithClock sets the clock used for FetchedAt and timing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService creates a snapshot service.
func NewService(src source.RecordSource, normalizer *domain.Normalizer, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		source:     src,
		normalizer: normalizer,
		limit:      MaxResults,
		metrics:    metrics,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit returns the per-snapshot record cap.
func (s *Service) Limit() int { return s.limit }

// Snapshot fetches records matching filter and runs them through the
// pipeline. Any source failure is returned wrapped in ErrSourceUnavailable.
func (s *Service) Snapshot(ctx context.Context, filter source.Filter) (Snapshot, error) {
	start := s.clock.Now()
	if filter.Limit <= 0 || filter.Limit > s.limit {
		filter.Limit = s.limit
	}

	total, counted, err := s.count(ctx, filter)
	if err != nil {
		return Snapshot{}, s.fail(err)
	}

	records, err := s.source.Fetch(ctx, filter)
	if err != nil {
		return Snapshot{}, s.fail(err)
	}

	incidents := s.normalizer.NormalizeAll(records)
	for i := range incidents {
		s.metrics.IncidentsNormalized.WithLabelValues(incidents[i].Category.String(), incidents[i].Severity.String()).Inc()
	}
	if !counted || total < len(incidents) {
		total = len(incidents)
	}

	snap := Snapshot{
		Total:     total,
		Cap:       filter.Limit,
		Truncated: total > filter.Limit,
		Incidents: incidents,
		Mix:       domain.AggregateMix(incidents),
		FetchedAt: s.clock.Now().UTC(),
	}
	s.metrics.SnapshotDuration.Observe(s.clock.Since(start).Seconds())
	s.logger.Debug("snapshot built",
		"total", snap.Total,
		"returned", len(snap.Incidents),
		"truncated", snap.Truncated,
	)
	return snap, nil
}

// count asks the source for the unlimited match count. It reports false when
// the source cannot count.
func (s *Service) count(ctx context.Context, filter source.Filter) (int, bool, error) {
	counter, ok := s.source.(source.Counter)
	if !ok {
		return 0, false, nil
	}
	n, err := counter.Count(ctx, filter)
	if errors.Is(err, source.ErrCountUnsupported) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *Service) fail(err error) error {
	s.metrics.SnapshotErrors.Inc()
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Warn("snapshot failed", "error", err)
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
