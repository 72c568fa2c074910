package httpadapter

import (
	"context"
	"errors"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/la-crime-etl/internal/dashboard"
	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/source"
)

// loadFailedMessage is shown when the record source cannot be reached.
const loadFailedMessage = "Failed to load incidents. Please adjust filters and try again."

type rangeBody struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type incidentsBody struct {
	dashboard.Snapshot
	Range      rangeBody `json:"range"`
	SelectedID *string   `json:"selectedId"`
}

type mixBody struct {
	Total     int                       `json:"total"`
	Truncated bool                      `json:"truncated"`
	Mix       []domain.CategoryMixEntry `json:"mix"`
	Severity  map[string]int            `json:"severity"`
}

type categoryBody struct {
	Type  domain.Category `json:"type"`
	Label string          `json:"label"`
}

type errorBody struct {
	Error string `json:"error"`
}

// handleIncidents returns the snapshot for the query filter. The optional
// "selected" parameter names the incident highlighted before the refresh.
func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	filter, snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	body := incidentsBody{
		Snapshot: snap,
		Range:    rangeBody{From: filter.Range.FromDate(), To: filter.Range.ToDate()},
	}
	if inc, found := domain.SelectIncident(snap.Incidents, r.URL.Query().Get("selected")); found {
		body.SelectedID = &inc.ID
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

// handleMix returns only the category mix and severity tally.
func (s *Server) handleMix(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	severity := make(map[string]int, len(domain.Severities()))
	for sev, n := range domain.SeverityCounts(snap.Incidents) {
		severity[sev.String()] = n
	}
	sharedobs.WriteJSON(w, http.StatusOK, mixBody{
		Total:     snap.Total,
		Truncated: snap.Truncated,
		Mix:       snap.Mix,
		Severity:  severity,
	})
}

func handleCategories(w http.ResponseWriter, _ *http.Request) {
	cats := domain.Categories()
	body := make([]categoryBody, len(cats))
	for i, c := range cats {
		body[i] = categoryBody{Type: c, Label: c.Label()}
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

func (s *Server) handleForecast(w http.ResponseWriter, _ *http.Request) {
	f, err := dashboard.Forecast()
	if err != nil {
		s.logger.Error("load forecast", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "forecast unavailable"})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, f)
}

// snapshot parses the filter and builds a snapshot, writing the error
// response itself when either step fails.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (source.Filter, dashboard.Snapshot, bool) {
	filter, err := parseFilter(r.URL.Query(), domain.Now(), s.location)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return source.Filter{}, dashboard.Snapshot{}, false
	}

	snap, err := s.snapshots.Snapshot(r.Context(), filter)
	switch {
	case err == nil:
		return filter, snap, true
	case errors.Is(err, context.Canceled):
		s.logger.Debug("client went away", "path", r.URL.Path)
	case errors.Is(err, dashboard.ErrSourceUnavailable):
		sharedobs.WriteJSON(w, http.StatusBadGateway, errorBody{Error: loadFailedMessage})
	default:
		s.logger.Error("snapshot failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: loadFailedMessage})
	}
	return source.Filter{}, dashboard.Snapshot{}, false
}
