package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/la-crime-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/la-crime-etl/internal/dashboard"
	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/source"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockSnapshots struct {
	snap      dashboard.Snapshot
	err       error
	gotFilter source.Filter
	calls     int
}

func (m *mockSnapshots) Snapshot(_ context.Context, filter source.Filter) (dashboard.Snapshot, error) {
	m.calls++
	m.gotFilter = filter
	return m.snap, m.err
}

func sampleSnapshot() dashboard.Snapshot {
	incidents := []domain.Incident{
		{ID: "1", Label: "Central", Category: domain.CategoryRobbery, Severity: domain.SeverityMedium, Lat: 34.05, Lon: -118.25},
		{ID: "2", Label: "Rampart", Category: domain.CategoryTheft, Severity: domain.SeverityLow, Lat: 34.07, Lon: -118.27},
	}
	return dashboard.Snapshot{
		Total:     2,
		Cap:       dashboard.MaxResults,
		Incidents: incidents,
		Mix:       domain.AggregateMix(incidents),
		FetchedAt: time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, snaps *mockSnapshots, readyErr error) *httpadapter.Server {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", snaps, &mockReadiness{err: readyErr}, logger, httpadapter.WithLocation(time.UTC))
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(t, &mockSnapshots{}, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(t, &mockSnapshots{}, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(t, &mockSnapshots{}, fmt.Errorf("not ready yet")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t, &mockSnapshots{}, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIncidents_DefaultsToLast30Days(t *testing.T) {
	snaps := &mockSnapshots{snap: sampleSnapshot()}
	rec := get(t, newTestServer(t, snaps, nil), "/api/incidents")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "2024-02-09", snaps.gotFilter.Range.FromDate())
	assert.Equal(t, "2024-03-11", snaps.gotFilter.Range.ToDate())
	assert.Nil(t, snaps.gotFilter.Category)
	assert.Nil(t, snaps.gotFilter.Bounds)

	var body struct {
		Total      int               `json:"total"`
		Cap        int               `json:"cap"`
		Truncated  bool              `json:"truncated"`
		Incidents  []domain.Incident `json:"incidents"`
		Mix        []map[string]any  `json:"mix"`
		Range      map[string]string `json:"range"`
		SelectedID *string           `json:"selectedId"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, dashboard.MaxResults, body.Cap)
	assert.False(t, body.Truncated)
	require.Len(t, body.Incidents, 2)
	assert.Equal(t, domain.CategoryRobbery, body.Incidents[0].Category)
	assert.Equal(t, []map[string]any{
		{"type": "THEFT", "value": float64(50)},
		{"type": "ROBBERY", "value": float64(50)},
	}, body.Mix)
	assert.Equal(t, map[string]string{"from": "2024-02-09", "to": "2024-03-11"}, body.Range)
	require.NotNil(t, body.SelectedID)
	assert.Equal(t, "1", *body.SelectedID)
}

func TestIncidents_KeepsSelection(t *testing.T) {
	snaps := &mockSnapshots{snap: sampleSnapshot()}
	srv := newTestServer(t, snaps, nil)

	tests := []struct {
		selected string
		want     string
	}{
		{selected: "2", want: "2"},
		{selected: "gone", want: "1"},
	}
	for _, tt := range tests {
		rec := get(t, srv, "/api/incidents?selected="+tt.selected)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			SelectedID *string `json:"selectedId"`
		}
		decode(t, rec, &body)
		require.NotNil(t, body.SelectedID)
		assert.Equal(t, tt.want, *body.SelectedID, "selected=%s", tt.selected)
	}
}

func TestIncidents_EmptySnapshotHasNoSelection(t *testing.T) {
	snaps := &mockSnapshots{snap: dashboard.Snapshot{Incidents: []domain.Incident{}, Mix: []domain.CategoryMixEntry{}}}
	rec := get(t, newTestServer(t, snaps, nil), "/api/incidents?selected=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decode(t, rec, &body)
	assert.Nil(t, body["selectedId"])
	assert.Equal(t, []any{}, body["incidents"])
	assert.Equal(t, []any{}, body["mix"])
}

func TestIncidents_FilterParameters(t *testing.T) {
	snaps := &mockSnapshots{snap: sampleSnapshot()}
	srv := newTestServer(t, snaps, nil)

	rec := get(t, srv, "/api/incidents?timeframe=custom&from=2024.03.01&to=2024-03-05"+
		"&crimeType=vehicle&minLat=34.0&minLon=-118.4&maxLat=34.1&maxLon=-118.2&limit=250")
	require.Equal(t, http.StatusOK, rec.Code)

	f := snaps.gotFilter
	assert.Equal(t, "2024-03-01", f.Range.FromDate())
	assert.Equal(t, "2024-03-06", f.Range.ToDate(), "custom range end is inclusive")
	require.NotNil(t, f.Category)
	assert.Equal(t, domain.CategoryVehicle, *f.Category)
	require.NotNil(t, f.Bounds)
	assert.Equal(t, source.Bounds{MinLat: 34.0, MinLon: -118.4, MaxLat: 34.1, MaxLon: -118.2}, *f.Bounds)
	assert.Equal(t, 250, f.Limit)
}

func TestIncidents_Timeframes(t *testing.T) {
	snaps := &mockSnapshots{snap: sampleSnapshot()}
	srv := newTestServer(t, snaps, nil)

	tests := []struct {
		query    string
		wantFrom string
	}{
		{query: "timeframe=30d", wantFrom: "2024-02-09"},
		{query: "timeframe=90d", wantFrom: "2023-12-11"},
		{query: "timeframe=12m", wantFrom: "2023-03-11"},
		{query: "crimeType=ALL", wantFrom: "2024-02-09"},
	}
	for _, tt := range tests {
		rec := get(t, srv, "/api/incidents?"+tt.query)
		require.Equal(t, http.StatusOK, rec.Code, tt.query)
		assert.Equal(t, tt.wantFrom, snaps.gotFilter.Range.FromDate(), tt.query)
		assert.Equal(t, "2024-03-11", snaps.gotFilter.Range.ToDate(), tt.query)
		assert.Nil(t, snaps.gotFilter.Category, tt.query)
	}
}

func TestIncidents_BadRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "unknown timeframe", query: "timeframe=7d"},
		{name: "custom without to", query: "timeframe=custom&from=2024-03-01"},
		{name: "from only", query: "from=2024-03-01"},
		{name: "inverted range", query: "from=2024-03-05&to=2024-03-01"},
		{name: "bad date", query: "from=2024-13-01&to=2024-13-05"},
		{name: "unknown crime type", query: "crimeType=JAYWALKING"},
		{name: "partial bounds", query: "minLat=34&maxLat=35"},
		{name: "non-numeric bounds", query: "minLat=a&minLon=-118&maxLat=35&maxLon=-117"},
		{name: "inverted bounds", query: "minLat=35&minLon=-118&maxLat=34&maxLon=-117"},
		{name: "NaN bounds", query: "minLat=NaN&minLon=-118&maxLat=34&maxLon=-117"},
		{name: "limit too large", query: "limit=1001"},
		{name: "limit zero", query: "limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps := &mockSnapshots{}
			rec := get(t, newTestServer(t, snaps, nil), "/api/incidents?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, snaps.calls, "source should not be queried")

			var body map[string]string
			decode(t, rec, &body)
			assert.Contains(t, body["error"], "invalid query")
		})
	}
}

func TestIncidents_SourceUnavailable(t *testing.T) {
	snaps := &mockSnapshots{err: fmt.Errorf("%w: connection refused", dashboard.ErrSourceUnavailable)}
	rec := get(t, newTestServer(t, snaps, nil), "/api/incidents")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "Failed to load incidents. Please adjust filters and try again.", body["error"])
}

func TestIncidents_UnexpectedError(t *testing.T) {
	snaps := &mockSnapshots{err: errors.New("boom")}
	rec := get(t, newTestServer(t, snaps, nil), "/api/incidents")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMix(t *testing.T) {
	snaps := &mockSnapshots{snap: sampleSnapshot()}
	rec := get(t, newTestServer(t, snaps, nil), "/api/mix?timeframe=90d")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total    int                       `json:"total"`
		Mix      []domain.CategoryMixEntry `json:"mix"`
		Severity map[string]int            `json:"severity"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, []domain.CategoryMixEntry{
		{Category: domain.CategoryTheft, Percentage: 50},
		{Category: domain.CategoryRobbery, Percentage: 50},
	}, body.Mix)
	assert.Equal(t, map[string]int{"Low": 1, "Medium": 1}, body.Severity)
}

func TestCategories(t *testing.T) {
	rec := get(t, newTestServer(t, &mockSnapshots{}, nil), "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []struct {
		Type  string `json:"type"`
		Label string `json:"label"`
	}
	decode(t, rec, &body)
	require.Len(t, body, 16)
	assert.Equal(t, "THEFT", body[0].Type)
	assert.Equal(t, "Theft", body[0].Label)
	assert.Equal(t, "FRAUD_FORGERY", body[8].Type)
	assert.Equal(t, "Fraud / Forgery", body[8].Label)
	assert.Equal(t, "OTHER", body[15].Type)
}

func TestForecast(t *testing.T) {
	rec := get(t, newTestServer(t, &mockSnapshots{}, nil), "/api/forecast")
	require.Equal(t, http.StatusOK, rec.Code)

	var body dashboard.ForecastView
	decode(t, rec, &body)
	assert.Len(t, body.MonthlyTrend, 7)
	require.Len(t, body.Predictions, 4)
	assert.Equal(t, "Koreatown", body.Predictions[2].Area)
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, newTestServer(t, &mockSnapshots{}, nil), "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
