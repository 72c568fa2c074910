// Package source provides the record sources that feed the incident pipeline:
// the upstream incident API, CSV exports, and a caching decorator.
package source

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
)

// RecordSource produces raw incident records for a filter.
type RecordSource interface {
	Fetch(ctx context.Context, filter Filter) ([]domain.RawRecord, error)
}

// Counter reports how many records match a filter, ignoring the limit.
type Counter interface {
	Count(ctx context.Context, filter Filter) (int, error)
}

// Bounds is a lat/lon bounding box, typically the visible map area.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Contains reports whether the point lies inside the box, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Filter narrows the records a source returns. Nil Category and Bounds mean
// "all categories" and "anywhere"; a zero Limit means no limit.
type Filter struct {
	Range    domain.DateRange
	Category *domain.Category
	Bounds   *Bounds
	Limit    int
}

// Query encodes the filter as upstream API query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if !f.Range.From.IsZero() {
		q.Set("from", f.Range.FromDate())
	}
	if !f.Range.To.IsZero() {
		q.Set("to", f.Range.ToDate())
	}
	if f.Category != nil {
		q.Set("crimeType", f.Category.String())
	}
	if f.Bounds != nil {
		q.Set("minLat", formatCoord(f.Bounds.MinLat))
		q.Set("minLon", formatCoord(f.Bounds.MinLon))
		q.Set("maxLat", formatCoord(f.Bounds.MaxLat))
		q.Set("maxLon", formatCoord(f.Bounds.MaxLon))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// key identifies the filter for caching.
func (f Filter) key() string {
	return f.Query().Encode()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func validCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// StatusError is returned when the upstream API answers with a non-200 status.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("incident API %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}
