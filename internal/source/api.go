package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/observability"
)

const (
	sourceAPI        = "api"
	endpointRecords  = "records"
	endpointCount    = "count"
	maxErrorBodySize = 4 << 10
)

// APISource implements RecordSource and Counter against the upstream incident API.
type APISource struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewAPISource creates a client for the incident API rooted at baseURL.
func NewAPISource(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *APISource {
	return &APISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch lists incident records. Records without finite coordinates are dropped.
func (s *APISource) Fetch(ctx context.Context, filter Filter) ([]domain.RawRecord, error) {
	var resp recordsResponse
	if err := s.get(ctx, "/api/incidents", endpointRecords, filter, &resp); err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(resp.Records))
	for _, r := range resp.Records {
		rec, ok := r.toRawRecord()
		if !ok {
			s.metrics.RecordsRejected.WithLabelValues(sourceAPI, "coordinates").Inc()
			s.logger.Debug("dropping record without coordinates", "id", string(r.ID))
			continue
		}
		records = append(records, rec)
	}

	s.metrics.RecordsFetched.WithLabelValues(sourceAPI).Add(float64(len(records)))
	if resp.Truncated {
		s.logger.Info("incident API truncated results", "total", resp.Total, "cap", resp.Cap)
	}
	return records, nil
}

// Count returns the number of records matching the filter.
func (s *APISource) Count(ctx context.Context, filter Filter) (int, error) {
	filter.Limit = 0
	var resp countResponse
	if err := s.get(ctx, "/api/incidents/count", endpointCount, filter, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (s *APISource) get(ctx context.Context, path, endpoint string, filter Filter, out any) error {
	u := s.baseURL + path
	if q := filter.Query().Encode(); q != "" {
		u += "?" + q
	}

	start := time.Now()
	err := s.doRequest(ctx, u, endpoint, out)
	s.metrics.SourceDuration.WithLabelValues(sourceAPI, endpoint).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.SourceRequests.WithLabelValues(sourceAPI, endpoint, outcome).Inc()
	return err
}

func (s *APISource) doRequest(ctx context.Context, fullURL, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// Incident API response types.

type recordsResponse struct {
	Total     int         `json:"total"`
	Cap       int         `json:"cap"`
	Truncated bool        `json:"truncated"`
	Records   []apiRecord `json:"records"`
}

type countResponse struct {
	Count int `json:"count"`
	Cap   int `json:"cap"`
}

// apiRecord mirrors domain.RawRecord with nullable coordinates.
type apiRecord struct {
	ID                 domain.RecordID `json:"id"`
	DRNumber           string          `json:"drNo"`
	AreaName           string          `json:"areaName"`
	CrimeDescription   string          `json:"crimeDesc"`
	PremiseDescription string          `json:"premiseDesc"`
	WeaponDescription  string          `json:"weaponDesc"`
	StatusDescription  string          `json:"statusDesc"`
	Location           string          `json:"location"`
	Lat                *float64        `json:"lat"`
	Lon                *float64        `json:"lon"`
	CrimeType          string          `json:"crimeType"`
	OccurTime          string          `json:"occurTime"`
}

func (r apiRecord) toRawRecord() (domain.RawRecord, bool) {
	if r.Lat == nil || r.Lon == nil || !validCoordinate(*r.Lat) || !validCoordinate(*r.Lon) {
		return domain.RawRecord{}, false
	}
	return domain.RawRecord{
		ID:                 r.ID,
		DRNumber:           r.DRNumber,
		AreaName:           r.AreaName,
		CrimeType:          r.CrimeType,
		CrimeDescription:   r.CrimeDescription,
		PremiseDescription: r.PremiseDescription,
		WeaponDescription:  r.WeaponDescription,
		StatusDescription:  r.StatusDescription,
		Location:           r.Location,
		Lat:                *r.Lat,
		Lon:                *r.Lon,
		OccurTime:          r.OccurTime,
	}, true
}
