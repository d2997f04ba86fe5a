// Package query turns free-text questions into record filters.
package query

import (
	"strings"

	"estateinsight/server/internal/models"
)

// LocationMatch describes how a location filter was derived
type LocationMatch string

const (
	// LocationMatchExplicit means known location names appear in the query.
	LocationMatchExplicit LocationMatch = "explicit"
	// LocationMatchGeneric means no name matched but a generic keyword
	// ("all", "every", "overview" or the city) asked for every location.
	LocationMatchGeneric LocationMatch = "generic"
	// LocationMatchAll is the fallback for queries naming nothing we know:
	// the filter still covers every known location.
	LocationMatchAll LocationMatch = "match_all"
)

// Filter is the structured form of a query. Empty Years means every year.
type Filter struct {
	Locations     []string      `json:"locations"`
	Years         []int         `json:"years"`
	LocationMatch LocationMatch `json:"location_match"`
}

// RecordFilter converts the filter into a store lookup
func (f Filter) RecordFilter() models.RecordFilter {
	return models.RecordFilter{Locations: f.Locations, Years: f.Years}
}

type yearPhrase struct {
	phrase string
	span   int
}

// Interpreter maps free-text questions onto location and year filters
type Interpreter struct {
	locations []string
	keywords  []string
	minYear   int
	maxYear   int
	phrases   []yearPhrase
}

// NewInterpreter builds an interpreter over the known locations. Years
// outside [minYear, maxYear] are ignored and the relative phrases count
// back from maxYear.
func NewInterpreter(locations []string, city string, minYear, maxYear int) *Interpreter {
	keywords := []string{"all", "every", "overview"}
	if city = strings.ToLower(strings.TrimSpace(city)); city != "" {
		keywords = append(keywords, city)
	}

	return &Interpreter{
		locations: append([]string(nil), locations...),
		keywords:  keywords,
		minYear:   minYear,
		maxYear:   maxYear,
		// checked in order, the first phrase found wins
		phrases: []yearPhrase{
			{phrase: "last 3 years", span: 3},
			{phrase: "last 2 years", span: 2},
			{phrase: "last year", span: 1},
		},
	}
}

// Locations returns the known location names
func (in *Interpreter) Locations() []string {
	return append([]string(nil), in.locations...)
}

// Interpret extracts the location and year filter from a query
func (in *Interpreter) Interpret(text string) Filter {
	locations, match := in.ExtractLocations(text)
	return Filter{
		Locations:     locations,
		Years:         in.ExtractYears(text),
		LocationMatch: match,
	}
}

// ExtractLocations returns the known locations named in text, in catalog
// order. It never returns an empty set: without a match every known
// location is returned.
func (in *Interpreter) ExtractLocations(text string) ([]string, LocationMatch) {
	lower := strings.ToLower(text)

	var found []string
	for _, loc := range in.locations {
		if strings.Contains(lower, strings.ToLower(loc)) {
			found = append(found, loc)
		}
	}
	if len(found) > 0 {
		return found, LocationMatchExplicit
	}

	for _, kw := range in.keywords {
		if strings.Contains(lower, kw) {
			return in.Locations(), LocationMatchGeneric
		}
	}
	return in.Locations(), LocationMatchAll
}

// ExtractYears returns the years the text restricts to, or nil for every
// year. Relative phrases take precedence over explicit years.
func (in *Interpreter) ExtractYears(text string) []int {
	lower := strings.ToLower(text)
	for _, p := range in.phrases {
		if strings.Contains(lower, p.phrase) {
			years := make([]int, 0, p.span)
			for y := in.maxYear - p.span + 1; y <= in.maxYear; y++ {
				years = append(years, y)
			}
			return years
		}
	}

	var years []int
	seen := make(map[int]bool)
	for _, word := range strings.Fields(text) {
		year, ok := parseYear(word)
		if !ok || year < in.minYear || year > in.maxYear || seen[year] {
			continue
		}
		seen[year] = true
		years = append(years, year)
	}
	return years
}

// parseYear accepts exactly four ASCII digits
func parseYear(word string) (int, bool) {
	if len(word) != 4 {
		return 0, false
	}
	year := 0
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		year = year*10 + int(c-'0')
	}
	return year, true
}
