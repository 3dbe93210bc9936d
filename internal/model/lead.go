// Package model defines the core domain types shared across the pipeline.
package model

import "time"

// ProfileType categorizes the kind of Instagram profile being prospected.
type ProfileType string

const (
	// ProfileTypePT targets individual personal trainers.
	ProfileTypePT ProfileType = "PT"
	// ProfileTypeCenter targets gyms, studios, and training centers.
	ProfileTypeCenter ProfileType = "Center"
)

// Valid reports whether the profile type is one of the known categories.
func (p ProfileType) Valid() bool {
	return p == ProfileTypePT || p == ProfileTypeCenter
}

// BusinessType returns the human label stored on saved profiles.
func (p ProfileType) BusinessType() string {
	if p == ProfileTypeCenter {
		return "Fitness Center"
	}
	return "Personal Trainer"
}

// SearchRequest is the immutable input to a single discovery run.
type SearchRequest struct {
	Location    string      `json:"location"`
	Keywords    string      `json:"keywords"`
	ProfileType ProfileType `json:"profileType"`
	Count       int         `json:"count"`
}

// Candidate is a deduplicated Instagram profile discovered from search
// results. Created on first sighting of a handle and never mutated.
type Candidate struct {
	Handle      string  `json:"handle"`
	Title       string  `json:"title"`
	Snippet     string  `json:"snippet"`
	SourceQuery string  `json:"sourceQuery"`
	Score       float64 `json:"score"`
}

// SearchOutput is the result of the fan-out, dedup, and ranking stages.
// Selected is a subset of Ranked with len(Selected) <= request count.
type SearchOutput struct {
	Queries  []string    `json:"queries"`
	Failures []string    `json:"failures"`
	Ranked   []Candidate `json:"ranked"`
	Selected []Candidate `json:"selected"`
}

// CopySource identifies which generator produced an outreach message.
type CopySource string

const (
	// CopySourceOracle marks copy produced by the generative oracle.
	CopySourceOracle CopySource = "oracle"
	// CopySourceFallback marks copy produced by the deterministic generator.
	CopySourceFallback CopySource = "fallback"
)

// CopyResult holds the outreach message generated for one selected
// candidate. Order parallels SearchOutput.Selected.
type CopyResult struct {
	Handle string     `json:"handle"`
	Copy   string     `json:"copy"`
	Source CopySource `json:"source"`
	Error  string     `json:"error,omitempty"`
}

// LeadStatus tracks a lead through the outreach funnel.
type LeadStatus string

// Known lead statuses.
const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusReplied      LeadStatus = "replied"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusDisqualified LeadStatus = "disqualified"
)

// LeadStatuses lists every valid status in funnel order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusReplied,
	LeadStatusQualified,
	LeadStatusDisqualified,
}

// ValidLeadStatus reports whether s is a known lead status.
func ValidLeadStatus(s string) bool {
	for _, ls := range LeadStatuses {
		if string(ls) == s {
			return true
		}
	}
	return false
}

// SearchRun records one execution of the discovery pipeline.
type SearchRun struct {
	ID           string         `json:"id"`
	WorkspaceID  string         `json:"workspace_id"`
	OwnerID      string         `json:"owner_id"`
	Query        string         `json:"query"`
	Filters      map[string]any `json:"filters"`
	ResultsCount int            `json:"results_count"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Profile is a persisted Instagram profile row.
type Profile struct {
	ID            string         `json:"id"`
	Handle        string         `json:"instagram_handle"`
	FullName      string         `json:"full_name,omitempty"`
	BusinessType  string         `json:"business_type"`
	City          string         `json:"city,omitempty"`
	Country       string         `json:"country,omitempty"`
	SourcePayload map[string]any `json:"source_payload,omitempty"`
}

// ProfileRef maps a handle to its persisted profile id.
type ProfileRef struct {
	Handle string `json:"handle"`
	ID     string `json:"id"`
}

// Lead is a persisted lead row tying a profile to a workspace and actor.
type Lead struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspace_id"`
	ProfileID     string     `json:"profile_id"`
	OwnerID       string     `json:"owner_id"`
	Actor         string     `json:"actor"`
	Status        LeadStatus `json:"status"`
	SourceQuery   string     `json:"source_query"`
	Confidence    int        `json:"confidence"`
	GeneratedCopy string     `json:"generated_copy,omitempty"`
	Handle        string     `json:"instagram_handle,omitempty"`
	BusinessType  string     `json:"business_type,omitempty"`
	City          string     `json:"city,omitempty"`
	Country       string     `json:"country,omitempty"`
	DiscoveredAt  time.Time  `json:"discovered_at"`
}

// ClampCount bounds a requested lead count to the allowed [1, 100] range,
// substituting the default of 20 when the input is zero.
func ClampCount(n int) int {
	if n == 0 {
		n = 20
	}
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}

// Confidence converts a candidate score into the 0-100 confidence stored on
// the lead row.
func Confidence(score float64) int {
	c := int(score*10 + 0.5)
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
