package search

import (
	"strings"

	"github.com/harbiz/prospect-cli/internal/model"
)

// maxQueries caps the fan-out per run; generation order is the tie-break
// for which queries survive the cap.
const maxQueries = 8

// typeSynonyms maps each profile type to the category phrases used to
// diversify the fan-out.
var typeSynonyms = map[model.ProfileType][]string{
	model.ProfileTypePT:     {"entrenador personal", "personal trainer", "coach fitness"},
	model.ProfileTypeCenter: {"studio fitness", "centro de entrenamiento", "gimnasio boutique"},
}

// excludeSuffix filters out Instagram content pages (posts, reels, stories)
// that can never resolve to a profile handle.
const excludeSuffix = "-inurl:/p/ -inurl:/reel/ -inurl:/reels/ -inurl:/tv/ -inurl:/explore/ -inurl:/stories/ -inurl:/tags/"

// BuildQueries deterministically expands a request into at most maxQueries
// Google queries scoped to instagram.com. For each category synonym it emits
// a plain site-scoped form, a quoted form, and a natural form without the
// site prefix, then dedups on the whitespace-normalized string.
func BuildQueries(req model.SearchRequest) []string {
	loc := strings.TrimSpace(req.Location)
	kw := strings.TrimSpace(req.Keywords)

	locPart := ""
	if loc != "" {
		locPart = " " + loc
	}

	var raw []string
	for _, t := range typeSynonyms[req.ProfileType] {
		raw = append(raw,
			"site:instagram.com"+locPart+" "+kw+" "+t,
			"site:instagram.com"+locPart+" \""+kw+"\" \""+t+"\"",
			kw+locPart+" "+t+" instagram",
		)
	}

	seen := make(map[string]bool, len(raw))
	queries := make([]string, 0, maxQueries)
	for _, q := range raw {
		normalized := normalizeSpace(q + " " + excludeSuffix)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		queries = append(queries, normalized)
		if len(queries) == maxQueries {
			break
		}
	}
	return queries
}

// normalizeSpace collapses runs of whitespace to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
