package httpadapter

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/la-crime-etl/internal/dashboard"
	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/source"
)

// errBadQuery marks query parameters the client must fix.
var errBadQuery = errors.New("invalid query")

var boundsParams = [4]string{"minLat", "minLon", "maxLat", "maxLon"}

// parseFilter reads the dashboard filter from query parameters:
// timeframe (30d, 90d, 12m or custom), from/to (inclusive dates), crimeType,
// minLat/minLon/maxLat/maxLon and limit.
func parseFilter(q url.Values, now time.Time, loc *time.Location) (source.Filter, error) {
	var f source.Filter

	rng, err := parseRange(q, now.In(loc), loc)
	if err != nil {
		return f, err
	}
	f.Range = rng

	if c := strings.TrimSpace(q.Get("crimeType")); c != "" && !strings.EqualFold(c, "all") {
		cat, ok := domain.ParseCategory(c)
		if !ok {
			return f, fmt.Errorf("%w: unknown crimeType %q", errBadQuery, c)
		}
		f.Category = &cat
	}

	if f.Bounds, err = parseBounds(q); err != nil {
		return f, err
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > dashboard.MaxResults {
			return f, fmt.Errorf("%w: limit must be between 1 and %d", errBadQuery, dashboard.MaxResults)
		}
		f.Limit = n
	}
	return f, nil
}

func parseRange(q url.Values, now time.Time, loc *time.Location) (domain.DateRange, error) {
	from, to := q.Get("from"), q.Get("to")
	tf := q.Get("timeframe")

	if tf == "custom" || (tf == "" && (from != "" || to != "")) {
		if from == "" || to == "" {
			return domain.DateRange{}, fmt.Errorf("%w: custom range needs both from and to", errBadQuery)
		}
		rng, err := domain.CustomRange(from, to, loc)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("%w: %w", errBadQuery, err)
		}
		return rng, nil
	}

	if tf == "" {
		return domain.Last30Days.Range(now), nil
	}
	preset, ok := domain.ParseTimeframe(tf)
	if !ok {
		return domain.DateRange{}, fmt.Errorf("%w: unknown timeframe %q", errBadQuery, tf)
	}
	return preset.Range(now), nil
}

func parseBounds(q url.Values) (*source.Bounds, error) {
	var vals [4]float64
	present := 0
	for i, key := range boundsParams {
		s := q.Get(key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s is not a number", errBadQuery, key)
		}
		vals[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case len(boundsParams):
	default:
		return nil, fmt.Errorf("%w: bounding box needs minLat, minLon, maxLat and maxLon", errBadQuery)
	}

	b := &source.Bounds{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return nil, fmt.Errorf("%w: bounding box minimum exceeds maximum", errBadQuery)
	}
	return b, nil
}
