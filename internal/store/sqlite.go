package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/harbiz/prospect-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_runs (
	id            TEXT PRIMARY KEY,
	workspace_id  TEXT NOT NULL,
	owner_id      TEXT NOT NULL,
	query         TEXT NOT NULL,
	filters       TEXT,
	results_count INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS profiles (
	id               TEXT PRIMARY KEY,
	instagram_handle TEXT NOT NULL UNIQUE,
	full_name        TEXT,
	business_type    TEXT NOT NULL,
	city             TEXT,
	country          TEXT,
	source_payload   TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	workspace_id   TEXT NOT NULL,
	profile_id     TEXT NOT NULL REFERENCES profiles(id),
	owner_id       TEXT NOT NULL,
	actor          TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'new',
	source_query   TEXT,
	confidence     INTEGER NOT NULL DEFAULT 0,
	generated_copy TEXT,
	discovered_at  DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (workspace_id, profile_id)
);

CREATE INDEX IF NOT EXISTS idx_search_runs_workspace ON search_runs(workspace_id);
CREATE INDEX IF NOT EXISTS idx_leads_workspace ON leads(workspace_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSearchRun(ctx context.Context, run model.SearchRun) (string, error) {
	id := uuid.New().String()

	filters, err := json.Marshal(run.Filters)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal filters")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_runs (id, workspace_id, owner_id, query, filters, results_count) VALUES (?, ?, ?, ?, ?, ?)`,
		id, run.WorkspaceID, run.OwnerID, run.Query, string(filters), run.ResultsCount,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert search run")
	}
	return id, nil
}

func (s *SQLiteStore) UpsertProfiles(ctx context.Context, profiles []model.Profile) ([]model.ProfileRef, error) {
	refs := make([]model.ProfileRef, 0, len(profiles))

	for _, p := range profiles {
		payload, err := json.Marshal(p.SourcePayload)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal source payload")
		}

		var id string
		err = s.db.QueryRowContext(ctx,
			`INSERT INTO profiles (id, instagram_handle, full_name, business_type, city, country, source_payload)
			 VALUES (?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), NULLIF(?, ''), ?)
			 ON CONFLICT (instagram_handle) DO UPDATE
			   SET business_type = excluded.business_type,
			       source_payload = excluded.source_payload,
			       updated_at = datetime('now')
			 RETURNING id`,
			uuid.New().String(), p.Handle, p.FullName, p.BusinessType, p.City, p.Country, string(payload),
		).Scan(&id)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: upsert profile %s", p.Handle)
		}
		refs = append(refs, model.ProfileRef{Handle: p.Handle, ID: id})
	}
	return refs, nil
}

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.Lead) error {
	for _, l := range leads {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO leads (id, workspace_id, profile_id, owner_id, actor, status, source_query, confidence, generated_copy, discovered_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)
			 ON CONFLICT (workspace_id, profile_id) DO UPDATE
			   SET actor = excluded.actor,
			       source_query = excluded.source_query,
			       confidence = excluded.confidence,
			       generated_copy = COALESCE(excluded.generated_copy, leads.generated_copy),
			       updated_at = datetime('now')`,
			uuid.New().String(), l.WorkspaceID, l.ProfileID, l.OwnerID, l.Actor,
			string(l.Status), l.SourceQuery, l.Confidence, l.GeneratedCopy, l.DiscoveredAt.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert lead for profile %s", l.ProfileID)
		}
	}
	return nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT l.id, l.workspace_id, l.profile_id, l.owner_id, l.actor, l.status,
	                 COALESCE(l.source_query, ''), l.confidence, COALESCE(l.generated_copy, ''), l.discovered_at,
	                 p.instagram_handle, p.business_type, COALESCE(p.city, ''), COALESCE(p.country, '')
	          FROM leads l JOIN profiles p ON p.id = l.profile_id
	          WHERE l.workspace_id = ?`
	args := []any{filter.WorkspaceID}

	add := func(clause, value string) {
		args = append(args, value)
		query += " AND " + clause + " = ?"
	}
	if filter.Status != "" {
		add("l.status", filter.Status)
	}
	if filter.OwnerID != "" {
		add("l.owner_id", filter.OwnerID)
	}
	if filter.Country != "" {
		add("p.country", filter.Country)
	}
	if filter.City != "" {
		add("p.city", filter.City)
	}

	query += " ORDER BY l.updated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var status string
		if err := rows.Scan(
			&l.ID, &l.WorkspaceID, &l.ProfileID, &l.OwnerID, &l.Actor, &status,
			&l.SourceQuery, &l.Confidence, &l.GeneratedCopy, &l.DiscoveredAt,
			&l.Handle, &l.BusinessType, &l.City, &l.Country,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.Status = model.LeadStatus(status)
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate leads")
	}
	return leads, nil
}
