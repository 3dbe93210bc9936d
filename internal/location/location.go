// Package location normalizes free-text or structured locations into a
// (country, city) pair for search scoping.
package location

import "strings"

// Parsed is the normalized result. Either field may be empty when it could
// not be inferred.
type Parsed struct {
	Country string
	City    string
}

// Parse resolves a location from an optional raw string and optional
// explicit city/country fields. An explicit country takes the whole result
// (paired with the explicit city, if any) and the raw string is not
// consulted; an explicit city without a country is ignored. Examples:
//
//	"Buenos Aires, Argentina"  -> city "Buenos Aires", country "Argentina"
//	"Argentina"                -> country "Argentina"
//	"Online, Colombia"         -> country "Colombia" (online is not a city)
//	"CDMX"                     -> country "CDMX" (single-segment fallback)
func Parse(raw, explicitCity, explicitCountry string) Parsed {
	if country := strings.TrimSpace(explicitCountry); country != "" {
		return Parsed{Country: country, City: strings.TrimSpace(explicitCity)}
	}
	return parseRaw(raw)
}

func parseRaw(raw string) Parsed {
	loc := strings.TrimSpace(raw)
	if loc == "" {
		return Parsed{}
	}

	var parts []string
	for _, p := range strings.Split(loc, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return Parsed{}
	}

	// An "online" marker in the first segment means there is no real city.
	isOnline := strings.Contains(strings.ToLower(parts[0]), "online")

	if len(parts) >= 2 {
		out := Parsed{Country: parts[len(parts)-1]}
		if !isOnline {
			out.City = strings.Join(parts[:len(parts)-1], ", ")
		}
		return out
	}

	// A single segment is treated as a country.
	return Parsed{Country: parts[0]}
}

// ForSearch composes the location string used in search queries: "city,
// country" when both resolved, the country alone otherwise, falling back to
// the raw trimmed input so unparseable locations never block a search.
func (p Parsed) ForSearch(raw string) string {
	switch {
	case p.City != "" && p.Country != "":
		return p.City + ", " + p.Country
	case p.Country != "":
		return p.Country
	default:
		return strings.TrimSpace(raw)
	}
}
