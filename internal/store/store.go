// Package store persists search runs, profiles, and leads. The pipeline is
// agnostic to the backing technology; Postgres and SQLite drivers are
// provided.
package store

import (
	"context"

	"github.com/harbiz/prospect-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	WorkspaceID string
	Status      string
	Country     string
	City        string
	OwnerID     string
	Limit       int
}

// Store defines the persistence interface for the discovery pipeline.
type Store interface {
	// CreateSearchRun inserts a run record and returns its id.
	CreateSearchRun(ctx context.Context, run model.SearchRun) (string, error)

	// UpsertProfiles inserts or refreshes profiles keyed by handle and
	// returns handle -> id mappings for every row.
	UpsertProfiles(ctx context.Context, profiles []model.Profile) ([]model.ProfileRef, error)

	// UpsertLeads inserts or refreshes leads keyed by (workspace, profile).
	UpsertLeads(ctx context.Context, leads []model.Lead) error

	// ListLeads returns leads matching the filter, most recent first.
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
