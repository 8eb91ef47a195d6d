// Package parser derives structured location/unit attributes from free-text
// project names like "Australia_451_Canberra" or "Sweden_123_Stockholm".
//
// Parse is a pure function: deterministic, no side effects. It is the
// unit-testable core of data quality for the ingestion pipeline, so anything
// it cannot recognize is reported through the confidence score rather than
// rejected.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Result holds the attributes parsed from one project name.
// Confidence is a heuristic [0,1] estimate derived additively from which
// name segments matched expected patterns.
type Result struct {
	NameRaw     string
	CountryName string
	CountryCode string // empty when the country label is not in the alias table
	UnitCode    string
	UnitNumber  *int // set when UnitCode is purely numeric
	City        string
	Confidence  float64
}

const (
	// baseConfidence applies to any non-empty name regardless of matches.
	baseConfidence    = 0.5
	countryConfidence = 0.3
	unitConfidence    = 0.2
	cityConfidence    = 0.2
)

var (
	unitPattern    = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	numericPattern = regexp.MustCompile(`^\d+$`)
)

// isPlaceholder reports whether a segment is a known filler token
func isPlaceholder(segment string) bool {
	return segment == "XX" || segment == "xxx"
}

// Parse splits a project name on underscores and maps its segments to
// country, unit, and city attributes. Empty input yields confidence 0 with
// all fields empty.
func Parse(name string) Result {
	result := Result{NameRaw: name}

	var segments []string
	for _, s := range strings.Split(name, "_") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return result
	}

	result.Confidence = baseConfidence
	result.CountryName = segments[0]
	if code, ok := LookupCountry(segments[0]); ok {
		result.CountryCode = code
		result.Confidence += countryConfidence
	}

	if len(segments) >= 2 {
		unit := segments[1]
		if unitPattern.MatchString(unit) && !isPlaceholder(unit) {
			result.UnitCode = unit
			if numericPattern.MatchString(unit) {
				if n, err := strconv.Atoi(unit); err == nil {
					result.UnitNumber = &n
				}
			}
			result.Confidence += unitConfidence
		}
	}

	if len(segments) >= 3 {
		if city := segments[2]; !isPlaceholder(city) {
			result.City = titleCase(city)
			result.Confidence += cityConfidence
		}
	}

	if result.Confidence > 1.0 {
		result.Confidence = 1.0
	}
	return result
}

// titleCase normalizes a raw city segment: sub-words split on '-' or '_' are
// capitalized and joined with spaces ("new-york" -> "New York").
func titleCase(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}
