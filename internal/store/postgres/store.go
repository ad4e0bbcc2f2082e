// Package postgres provides the Postgres-backed job store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobsift/jobsift/internal/jobs"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for job rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists canonical jobs in Postgres with upsert-by-natural-key
// semantics.
type Store struct {
	pool  dbPool
	table string
	clock jobs.Clock
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config, clock jobs.Clock) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "jobs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table, clock: clock}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool dbPool, table string, clock jobs.Clock) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "jobs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table, clock: clock}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateSchema creates the jobs table and its natural-key uniqueness
// constraint if they do not exist yet. Safe to run on every start.
func (s *Store) CreateSchema(ctx context.Context) error {
	create := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	site_id TEXT NOT NULL,
	job_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	company_name TEXT NOT NULL DEFAULT '',
	apply_url TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	salary_min DOUBLE PRECISION,
	salary_max DOUBLE PRECISION,
	location_city TEXT NOT NULL DEFAULT '',
	location_state TEXT NOT NULL DEFAULT '',
	location_country TEXT NOT NULL DEFAULT '',
	remote BOOLEAN NOT NULL DEFAULT FALSE,
	hybrid BOOLEAN NOT NULL DEFAULT FALSE,
	fuzzy_score DOUBLE PRECISION,
	last_seen TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL DEFAULT ''
)`, s.table)
	if _, err := s.pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("create jobs table: %w", err)
	}
	index := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s_site_job_key ON %s (site_id, job_id)`,
		s.table, s.table,
	)
	if _, err := s.pool.Exec(ctx, index); err != nil {
		return fmt.Errorf("create natural key index: %w", err)
	}
	return nil
}

// Upsert inserts a new row for an unseen (site_id, job_id) pair. On conflict
// only last_seen moves forward; descriptive fields and the viewer-owned
// status column are never overwritten by re-ingestion.
func (s *Store) Upsert(ctx context.Context, job jobs.Job) error {
	if job.SiteID == "" || job.JobID == "" {
		return fmt.Errorf("job natural key (site_id, job_id) is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	site_id,
	job_id,
	title,
	company_name,
	apply_url,
	source_url,
	salary_min,
	salary_max,
	location_city,
	location_state,
	location_country,
	remote,
	hybrid,
	fuzzy_score,
	last_seen,
	status
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,''
)
ON CONFLICT (site_id, job_id) DO UPDATE SET last_seen = EXCLUDED.last_seen`, s.table)

	args := []any{
		job.SiteID,
		job.JobID,
		job.Title,
		job.CompanyName,
		job.ApplyURL,
		job.SourceURL,
		job.SalaryMin,
		job.SalaryMax,
		job.LocationCity,
		job.LocationState,
		job.LocationCountry,
		job.Remote,
		job.Hybrid,
		job.FuzzyScore,
		s.clock.Now(),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job %s/%s: %w", job.SiteID, job.JobID, err)
	}
	return nil
}

// SetStatus updates the status field for one natural key and reports the
// number of rows affected. A missing key affects zero rows and is not an
// error.
func (s *Store) SetStatus(ctx context.Context, siteID, jobID, status string) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET status = $1 WHERE site_id = $2 AND job_id = $3`, s.table)
	tag, err := s.pool.Exec(ctx, query, status, siteID, jobID)
	if err != nil {
		return 0, fmt.Errorf("set status for %s/%s: %w", siteID, jobID, err)
	}
	return tag.RowsAffected(), nil
}

// ListJobs returns one row per distinct job_id, most recently seen first,
// then company name, then title. Historical duplicates from earlier schema
// generations collapse to the freshest row.
func (s *Store) ListJobs(ctx context.Context) ([]jobs.Job, error) {
	query := fmt.Sprintf(`
SELECT site_id, job_id, title, company_name, apply_url, source_url,
	salary_min, salary_max, location_city, location_state, location_country,
	remote, hybrid, fuzzy_score, last_seen, status
FROM (
	SELECT DISTINCT ON (job_id) site_id, job_id, title, company_name,
		apply_url, source_url, salary_min, salary_max, location_city,
		location_state, location_country, remote, hybrid, fuzzy_score,
		last_seen, status
	FROM %s
	ORDER BY job_id, last_seen DESC
) latest
ORDER BY last_seen DESC, company_name, title`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []jobs.Job
	for rows.Next() {
		var j jobs.Job
		if err := rows.Scan(
			&j.SiteID,
			&j.JobID,
			&j.Title,
			&j.CompanyName,
			&j.ApplyURL,
			&j.SourceURL,
			&j.SalaryMin,
			&j.SalaryMax,
			&j.LocationCity,
			&j.LocationState,
			&j.LocationCountry,
			&j.Remote,
			&j.Hybrid,
			&j.FuzzyScore,
			&j.LastSeen,
			&j.Status,
		); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job rows: %w", err)
	}
	return out, nil
}

// CountJobs returns the total number of rows in the store.
func (s *Store) CountJobs(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}
