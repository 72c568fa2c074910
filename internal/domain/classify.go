package domain

import "strings"

// rule tags a category with the keywords that select it.
type rule struct {
	keywords []string
	category Category
}

// classificationRules is evaluated top to bottom; the first rule with a
// matching keyword wins. Descriptions routinely match several rules, so the
// order must not change.
var classificationRules = []rule{
	{keywords: []string{"homicide", "murder"}, category: CategoryHomicide},
	{keywords: []string{"kidnap", "human trafficking"}, category: CategoryKidnappingTrafficking},
	{keywords: []string{"sexual", "rape", "sex"}, category: CategorySexCrime},
	{keywords: []string{"child"}, category: CategoryChildCrime},
	{keywords: []string{"domestic"}, category: CategoryDomestic},
	{keywords: []string{"assault", "battery", "threat"}, category: CategoryAssault},
	{keywords: []string{"robbery"}, category: CategoryRobbery},
	{keywords: []string{"burglary from vehicle", "vehicle - stolen", "vehicle"}, category: CategoryVehicle},
	{keywords: []string{"burglary"}, category: CategoryBurglary},
	{keywords: []string{"vandal", "arson", "damage"}, category: CategoryVandalismArson},
	{keywords: []string{"weapon", "gun", "shots fired"}, category: CategoryWeapons},
	{keywords: []string{"fraud", "forgery", "bunco", "counterfeit"}, category: CategoryFraudForgery},
	{keywords: []string{"court"}, category: CategoryCourtOrder},
	{keywords: []string{"disturbing", "public order", "illegal dumping"}, category: CategoryPublicOrder},
	{keywords: []string{"theft"}, category: CategoryTheft},
}

func (r rule) matches(text string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Classify resolves the category for an incident. A raw category naming a
// known tag is returned unchanged; otherwise the crime description is matched
// against the keyword rules, falling back to CategoryOther.
func Classify(crimeDescription, rawCategory string) Category {
	if c, ok := ParseCategory(rawCategory); ok {
		return c
	}
	return categorize(crimeDescription)
}

func categorize(crimeDescription string) Category {
	text := strings.ToLower(crimeDescription)
	for _, r := range classificationRules {
		if r.matches(text) {
			return r.category
		}
	}
	return CategoryOther
}

var (
	highSeverityKeywords   = []string{"deadly", "weapon", "assault"}
	mediumSeverityKeywords = []string{"burglary", "robbery"}
)

// EstimateSeverity derives a severity tier from the crime and weapon
// descriptions. The high tier is always checked first.
func EstimateSeverity(crimeDescription, weaponDescription string) Severity {
	text := strings.ToLower(crimeDescription + " " + weaponDescription)
	switch {
	case containsAny(text, highSeverityKeywords):
		return SeverityHigh
	case containsAny(text, mediumSeverityKeywords):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
