package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbiz/prospect-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testLead(profileID string) model.Lead {
	return model.Lead{
		WorkspaceID:  "ws-1",
		ProfileID:    profileID,
		OwnerID:      "actor-1",
		Actor:        "maria@harbiz.io",
		Status:       model.LeadStatusNew,
		SourceQuery:  "site:instagram.com fitness",
		Confidence:   10,
		DiscoveredAt: time.Now().UTC(),
	}
}

func TestSQLite_CreateSearchRun(t *testing.T) {
	st := newTestSQLiteStore(t)

	id, err := st.CreateSearchRun(context.Background(), model.SearchRun{
		WorkspaceID:  "ws-1",
		OwnerID:      "actor-1",
		Query:        "PT: fitness @ CDMX, México",
		Filters:      map[string]any{"keywords": "fitness", "count": 20},
		ResultsCount: 3,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSQLite_UpsertProfiles_InsertThenUpdate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	refs, err := st.UpsertProfiles(ctx, []model.Profile{
		{Handle: "coach_a", FullName: "Coach A", BusinessType: "Personal Trainer", City: "CDMX", Country: "México"},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	firstID := refs[0].ID
	assert.NotEmpty(t, firstID)

	// Upserting the same handle keeps the row and its id.
	refs, err = st.UpsertProfiles(ctx, []model.Profile{
		{Handle: "coach_a", FullName: "Coach A", BusinessType: "Fitness Center"},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, firstID, refs[0].ID)
}

func TestSQLite_UpsertLeads_AndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	refs, err := st.UpsertProfiles(ctx, []model.Profile{
		{Handle: "coach_a", BusinessType: "Personal Trainer", City: "CDMX", Country: "México"},
		{Handle: "studio_b", BusinessType: "Fitness Center", City: "Madrid", Country: "España"},
	})
	require.NoError(t, err)

	l1 := testLead(refs[0].ID)
	l1.GeneratedCopy = "Hola! Soy Maria."
	l2 := testLead(refs[1].ID)
	require.NoError(t, st.UpsertLeads(ctx, []model.Lead{l1, l2}))

	leads, err := st.ListLeads(ctx, LeadFilter{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	leads, err = st.ListLeads(ctx, LeadFilter{WorkspaceID: "ws-1", Country: "México"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "coach_a", leads[0].Handle)
	assert.Equal(t, "Personal Trainer", leads[0].BusinessType)
	assert.Equal(t, "Hola! Soy Maria.", leads[0].GeneratedCopy)
}

func TestSQLite_UpsertLeads_DuplicateKeepsOneRow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	refs, err := st.UpsertProfiles(ctx, []model.Profile{
		{Handle: "coach_a", BusinessType: "Personal Trainer"},
	})
	require.NoError(t, err)

	lead := testLead(refs[0].ID)
	lead.GeneratedCopy = "primer mensaje"
	require.NoError(t, st.UpsertLeads(ctx, []model.Lead{lead}))

	// Re-upsert without copy: existing copy is kept via COALESCE.
	lead.GeneratedCopy = ""
	lead.Confidence = 20
	require.NoError(t, st.UpsertLeads(ctx, []model.Lead{lead}))

	leads, err := st.ListLeads(ctx, LeadFilter{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 20, leads[0].Confidence)
	assert.Equal(t, "primer mensaje", leads[0].GeneratedCopy)
}

func TestSQLite_ListLeads_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	leads, err := st.ListLeads(context.Background(), LeadFilter{WorkspaceID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestSQLite_ListLeads_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	refs, err := st.UpsertProfiles(ctx, []model.Profile{
		{Handle: "a", BusinessType: "Personal Trainer"},
		{Handle: "b", BusinessType: "Personal Trainer"},
		{Handle: "c", BusinessType: "Personal Trainer"},
	})
	require.NoError(t, err)

	var leads []model.Lead
	for _, ref := range refs {
		leads = append(leads, testLead(ref.ID))
	}
	require.NoError(t, st.UpsertLeads(ctx, leads))

	got, err := st.ListLeads(ctx, LeadFilter{WorkspaceID: "ws-1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
