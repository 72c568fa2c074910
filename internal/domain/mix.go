package domain

import "math"

// AggregateMix computes the percentage of incidents per category, in
// canonical category order, omitting categories that round to zero.
// An empty input yields an empty mix.
func AggregateMix(incidents []Incident) []CategoryMixEntry {
	if len(incidents) == 0 {
		return []CategoryMixEntry{}
	}

	var counts [categoryCount]int
	for i := range incidents {
		c := incidents[i].Category
		if !c.Valid() {
			c = CategoryOther
		}
		counts[c]++
	}

	total := float64(len(incidents))
	mix := make([]CategoryMixEntry, 0, categoryCount)
	for _, c := range Categories() {
		if counts[c] == 0 {
			continue
		}
		pct := int(math.Round(float64(counts[c]) / total * 100))
		if pct > 0 {
			mix = append(mix, CategoryMixEntry{Category: c, Percentage: pct})
		}
	}
	return mix
}

// SeverityCounts tallies incidents per severity tier.
func SeverityCounts(incidents []Incident) map[Severity]int {
	counts := make(map[Severity]int, len(severityNames))
	for i := range incidents {
		counts[incidents[i].Severity]++
	}
	return counts
}
