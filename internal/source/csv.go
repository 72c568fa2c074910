package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/observability"
)

const sourceCSV = "csv"

type csvField int

const (
	fieldID csvField = iota
	fieldArea
	fieldCrimeType
	fieldCrimeDesc
	fieldPremise
	fieldWeapon
	fieldStatus
	fieldLocation
	fieldLat
	fieldLon
	fieldTime
	fieldDate
	fieldCount
)

// csvHeaders maps lower-cased header names to fields. Both the LAPD open data
// export and the incident API naming are accepted.
var csvHeaders = map[string]csvField{
	"dr_no":       fieldID,
	"id":          fieldID,
	"area name":   fieldArea,
	"areaname":    fieldArea,
	"crimetype":   fieldCrimeType,
	"crime_type":  fieldCrimeType,
	"crm cd desc": fieldCrimeDesc,
	"crimedesc":   fieldCrimeDesc,
	"premis desc": fieldPremise,
	"premisedesc": fieldPremise,
	"weapon desc": fieldWeapon,
	"weapondesc":  fieldWeapon,
	"status desc": fieldStatus,
	"statusdesc":  fieldStatus,
	"location":    fieldLocation,
	"lat":         fieldLat,
	"lon":         fieldLon,
	"time occ":    fieldTime,
	"occurtime":   fieldTime,
	"occur_time":  fieldTime,
	"date occ":    fieldDate,
	"occurdate":   fieldDate,
	"occur_date":  fieldDate,
}

// csvDateLayouts are the calendar-day forms of DATE OCC and occurDate.
var csvDateLayouts = []string{
	"01/02/2006 03:04:05 PM",
	"01/02/2006",
	"2006-01-02",
}

// CSVSource implements RecordSource and Counter over a delimited-text export.
// The date range of a filter applies to rows with an occurrence date or an ISO
// occurrence time; rows carrying only a clock time always pass it.
type CSVSource struct {
	path    string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCSVSource creates a source that re-reads path on every call.
func NewCSVSource(path string, metrics *observability.Metrics, logger *slog.Logger) *CSVSource {
	return &CSVSource{path: path, metrics: metrics, logger: logger}
}

// Fetch returns matching rows in file order, truncated to the filter limit.
func (s *CSVSource) Fetch(ctx context.Context, filter Filter) ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	err := s.scan(ctx, filter, func(rec domain.RawRecord) bool {
		records = append(records, rec)
		return filter.Limit <= 0 || len(records) < filter.Limit
	})
	s.observe(endpointRecords, err)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordsFetched.WithLabelValues(sourceCSV).Add(float64(len(records)))
	return records, nil
}

// Count returns the number of matching rows, ignoring the limit.
func (s *CSVSource) Count(ctx context.Context, filter Filter) (int, error) {
	n := 0
	err := s.scan(ctx, filter, func(domain.RawRecord) bool {
		n++
		return true
	})
	s.observe(endpointCount, err)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *CSVSource) observe(endpoint string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.SourceRequests.WithLabelValues(sourceCSV, endpoint, outcome).Inc()
}

// scan streams matching rows to fn until fn returns false or the file ends.
func (s *CSVSource) scan(ctx context.Context, filter Filter, fn func(domain.RawRecord) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := NewCSVReader(f)
	columns, err := r.readHeader()
	if err != nil {
		return err
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read csv: %w", err)
		}

		rec, ok := columns.record(row)
		if !ok {
			s.metrics.RecordsRejected.WithLabelValues(sourceCSV, "coordinates").Inc()
			s.logger.Debug("skipping csv row with invalid coordinates", "line", line)
			continue
		}
		if !matches(filter, rec) {
			continue
		}
		if !fn(rec) {
			return nil
		}
	}
}

func matches(filter Filter, rec domain.RawRecord) bool {
	if filter.Bounds != nil && !filter.Bounds.Contains(rec.Lat, rec.Lon) {
		return false
	}
	if filter.Category != nil && domain.Classify(rec.CrimeDescription, rec.CrimeType) != *filter.Category {
		return false
	}
	if !filter.Range.To.IsZero() {
		if at, ok := occurredAt(rec, filter.Range.From.Location()); ok && !filter.Range.Contains(at) {
			return false
		}
	}
	return true
}

// occurredAt resolves when a row happened. Calendar days are read in loc so
// they line up with the range boundaries.
func occurredAt(rec domain.RawRecord, loc *time.Location) (time.Time, bool) {
	for _, v := range []string{rec.OccurDate, rec.OccurTime} {
		if v == "" {
			continue
		}
		for _, layout := range csvDateLayouts {
			if t, err := time.ParseInLocation(layout, v, loc); err == nil {
				return t, true
			}
		}
	}
	return domain.ParseTimestamp(rec.OccurTime, loc)
}

// CSVReader reads incident rows from comma-separated, double-quote-escaped text
// whose first row names the columns.
type CSVReader struct {
	*csv.Reader
}

// NewCSVReader wraps r in a CSV reader configured for incident exports.
func NewCSVReader(r io.Reader) *CSVReader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return &CSVReader{Reader: cr}
}

// ReadAll parses every row into records, skipping rows with invalid
// coordinates. It returns the records and the number of rows skipped.
func (r *CSVReader) ReadAll() ([]domain.RawRecord, int, error) {
	columns, err := r.readHeader()
	if err != nil {
		return nil, 0, err
	}
	var (
		records []domain.RawRecord
		skipped int
	)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, skipped, nil
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read csv: %w", err)
		}
		rec, ok := columns.record(row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
}

// columnIndex maps each field to its column position, -1 when absent.
type columnIndex [fieldCount]int

func (r *CSVReader) readHeader() (columnIndex, error) {
	var idx columnIndex
	for i := range idx {
		idx[i] = -1
	}

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return idx, errors.New("read csv header: empty file")
	}
	if err != nil {
		return idx, fmt.Errorf("read csv header: %w", err)
	}

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if f, ok := csvHeaders[strings.ToLower(strings.TrimSpace(name))]; ok && idx[f] < 0 {
			idx[f] = i
		}
	}
	if idx[fieldLat] < 0 || idx[fieldLon] < 0 {
		return idx, errors.New("read csv header: missing LAT/LON columns")
	}
	return idx, nil
}

func (c columnIndex) get(row []string, f csvField) string {
	i := c[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// record converts a row, reporting false when its coordinates are unusable.
func (c columnIndex) record(row []string) (domain.RawRecord, bool) {
	lat, errLat := strconv.ParseFloat(c.get(row, fieldLat), 64)
	lon, errLon := strconv.ParseFloat(c.get(row, fieldLon), 64)
	if errLat != nil || errLon != nil || !validCoordinate(lat) || !validCoordinate(lon) {
		return domain.RawRecord{}, false
	}

	return domain.RawRecord{
		ID:                 domain.RecordID(c.get(row, fieldID)),
		AreaName:           c.get(row, fieldArea),
		CrimeType:          c.get(row, fieldCrimeType),
		CrimeDescription:   c.get(row, fieldCrimeDesc),
		PremiseDescription: c.get(row, fieldPremise),
		WeaponDescription:  c.get(row, fieldWeapon),
		StatusDescription:  c.get(row, fieldStatus),
		Location:           c.get(row, fieldLocation),
		Lat:                lat,
		Lon:                lon,
		OccurTime:          c.get(row, fieldTime),
		OccurDate:          c.get(row, fieldDate),
	}, true
}
