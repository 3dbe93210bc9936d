package search

import "github.com/harbiz/prospect-cli/internal/model"

// Registry deduplicates candidates across queries, first-seen wins.
// It is only written from the sequential fan-out loop, so it carries no
// locking. Lifetime is one pipeline run.
type Registry struct {
	order    []string
	byHandle map[string]model.Candidate
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byHandle: make(map[string]model.Candidate)}
}

// Observe records a sighting of a handle. The first sighting creates the
// candidate with a flat score of 1; later sightings of the same handle are
// discarded, not merged.
func (r *Registry) Observe(handle, title, snippet, sourceQuery string) {
	if _, ok := r.byHandle[handle]; ok {
		return
	}
	if title == "" {
		title = handle
	}
	r.byHandle[handle] = model.Candidate{
		Handle:      handle,
		Title:       title,
		Snippet:     snippet,
		SourceQuery: sourceQuery,
		Score:       1,
	}
	r.order = append(r.order, handle)
}

// Len returns the number of distinct handles observed.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the candidates in strict first-seen order.
func (r *Registry) All() []model.Candidate {
	out := make([]model.Candidate, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.byHandle[h])
	}
	return out
}
