package domain

// Incident is the normalized, display-ready form of a single RawRecord.
type Incident struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Category    Category `json:"type"`
	DateTime    string   `json:"dateTime"`
	Street      string   `json:"street"`
	Description string   `json:"desc"`
	Severity    Severity `json:"severity"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
}

// CategoryMixEntry is the rounded share of incidents in one category.
type CategoryMixEntry struct {
	Category   Category `json:"type"`
	Percentage int      `json:"value"`
}

// SelectIncident picks the incident to highlight after a refresh: the
// previously selected one if it is still present, otherwise the first.
func SelectIncident(incidents []Incident, currentID string) (Incident, bool) {
	if currentID != "" {
		for _, inc := range incidents {
			if inc.ID == currentID {
				return inc, true
			}
		}
	}
	if len(incidents) == 0 {
		return Incident{}, false
	}
	return incidents[0], true
}
