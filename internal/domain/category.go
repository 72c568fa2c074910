package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one of the 16 fixed crime-type tags assigned to every incident.
type Category int

// Categories in canonical order. The order drives the category mix output.
const (
	CategoryTheft Category = iota
	CategoryBurglary
	CategoryRobbery
	CategoryVehicle
	CategoryAssault
	CategoryDomestic
	CategorySexCrime
	CategoryChildCrime
	CategoryFraudForgery
	CategoryVandalismArson
	CategoryWeapons
	CategoryCourtOrder
	CategoryPublicOrder
	CategoryKidnappingTrafficking
	CategoryHomicide
	CategoryOther

	categoryCount = int(CategoryOther) + 1
)

var categoryTags = [categoryCount]string{
	"THEFT",
	"BURGLARY",
	"ROBBERY",
	"VEHICLE",
	"ASSAULT",
	"DOMESTIC",
	"SEX_CRIME",
	"CHILD_CRIME",
	"FRAUD_FORGERY",
	"VANDALISM_ARSON",
	"WEAPONS",
	"COURT_ORDER",
	"PUBLIC_ORDER",
	"KIDNAPPING_TRAFFICKING",
	"HOMICIDE",
	"OTHER",
}

var categoryLabels = [categoryCount]string{
	"Theft",
	"Burglary",
	"Robbery",
	"Vehicle",
	"Assault",
	"Domestic violence",
	"Sex crime",
	"Child crime",
	"Fraud / Forgery",
	"Vandalism / Arson",
	"Weapons",
	"Court order",
	"Public order",
	"Kidnapping / Trafficking",
	"Homicide",
	"Other",
}

// Categories returns every category in canonical order.
func Categories() []Category {
	out := make([]Category, categoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Valid reports whether c is one of the 16 known categories.
func (c Category) Valid() bool {
	return c >= CategoryTheft && c <= CategoryOther
}

// String returns the category tag, e.g. "SEX_CRIME".
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryTags[c]
}

// Label returns the human-readable name shown next to charts and markers.
func (c Category) Label() string {
	if !c.Valid() {
		return c.String()
	}
	return categoryLabels[c]
}

// ParseCategory matches a tag after trimming and upper-casing it.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, false
	}
	for i, tag := range categoryTags {
		if tag == s {
			return Category(i), true
		}
	}
	return CategoryOther, false
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal category: unknown value %d", int(c))
	}
	return json.Marshal(categoryTags[c])
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal category: %w", err)
	}
	parsed, ok := ParseCategory(s)
	if !ok {
		return fmt.Errorf("unmarshal category: unknown tag %q", s)
	}
	*c = parsed
	return nil
}
