package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/harbiz/prospect-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_runs (
	id            TEXT PRIMARY KEY,
	workspace_id  TEXT NOT NULL,
	owner_id      TEXT NOT NULL,
	query         TEXT NOT NULL,
	filters       JSONB,
	results_count INT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id               TEXT PRIMARY KEY,
	instagram_handle TEXT NOT NULL UNIQUE,
	full_name        TEXT,
	business_type    TEXT NOT NULL,
	city             TEXT,
	country          TEXT,
	source_payload   JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	workspace_id   TEXT NOT NULL,
	profile_id     TEXT NOT NULL REFERENCES profiles(id),
	owner_id       TEXT NOT NULL,
	actor          TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'new',
	source_query   TEXT,
	confidence     INT NOT NULL DEFAULT 0,
	generated_copy TEXT,
	discovered_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workspace_id, profile_id)
);

CREATE INDEX IF NOT EXISTS idx_search_runs_workspace ON search_runs(workspace_id);
CREATE INDEX IF NOT EXISTS idx_leads_workspace ON leads(workspace_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_profiles_handle ON profiles(instagram_handle);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateSearchRun inserts a run record and returns its id.
func (s *PostgresStore) CreateSearchRun(ctx context.Context, run model.SearchRun) (string, error) {
	id := uuid.New().String()

	filters, err := json.Marshal(run.Filters)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal filters")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_runs (id, workspace_id, owner_id, query, filters, results_count) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, run.WorkspaceID, run.OwnerID, run.Query, filters, run.ResultsCount,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert search run")
	}
	return id, nil
}

// UpsertProfiles inserts or refreshes profiles keyed by instagram_handle.
func (s *PostgresStore) UpsertProfiles(ctx context.Context, profiles []model.Profile) ([]model.ProfileRef, error) {
	refs := make([]model.ProfileRef, 0, len(profiles))

	for _, p := range profiles {
		payload, err := json.Marshal(p.SourcePayload)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal source payload")
		}

		var id string
		err = s.pool.QueryRow(ctx,
			`INSERT INTO profiles (id, instagram_handle, full_name, business_type, city, country, source_payload)
			 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7)
			 ON CONFLICT (instagram_handle) DO UPDATE
			   SET business_type = EXCLUDED.business_type,
			       source_payload = EXCLUDED.source_payload,
			       updated_at = now()
			 RETURNING id`,
			uuid.New().String(), p.Handle, p.FullName, p.BusinessType, p.City, p.Country, payload,
		).Scan(&id)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: upsert profile %s", p.Handle)
		}
		refs = append(refs, model.ProfileRef{Handle: p.Handle, ID: id})
	}
	return refs, nil
}

// UpsertLeads inserts or refreshes leads keyed by (workspace_id, profile_id).
func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.Lead) error {
	for _, l := range leads {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO leads (id, workspace_id, profile_id, owner_id, actor, status, source_query, confidence, generated_copy, discovered_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
			 ON CONFLICT (workspace_id, profile_id) DO UPDATE
			   SET actor = EXCLUDED.actor,
			       source_query = EXCLUDED.source_query,
			       confidence = EXCLUDED.confidence,
			       generated_copy = COALESCE(EXCLUDED.generated_copy, leads.generated_copy),
			       updated_at = now()`,
			uuid.New().String(), l.WorkspaceID, l.ProfileID, l.OwnerID, l.Actor,
			string(l.Status), l.SourceQuery, l.Confidence, l.GeneratedCopy, l.DiscoveredAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert lead for profile %s", l.ProfileID)
		}
	}
	return nil
}

// ListLeads returns leads matching the filter, most recently updated first.
func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	sql := `SELECT l.id, l.workspace_id, l.profile_id, l.owner_id, l.actor, l.status,
	               COALESCE(l.source_query, ''), l.confidence, COALESCE(l.generated_copy, ''), l.discovered_at,
	               p.instagram_handle, p.business_type, COALESCE(p.city, ''), COALESCE(p.country, '')
	        FROM leads l JOIN profiles p ON p.id = l.profile_id
	        WHERE l.workspace_id = $1`
	args := []any{filter.WorkspaceID}

	add := func(clause, value string) {
		args = append(args, value)
		sql += " AND " + clause + " = $" + strconv.Itoa(len(args))
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

	sql += " ORDER BY l.updated_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
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
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l.Status = model.LeadStatus(status)
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}
