package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	icp            JSONB NOT NULL,
	total_found    INTEGER NOT NULL DEFAULT 0,
	returned       INTEGER NOT NULL DEFAULT 0,
	top_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
	search_time_ms INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_results (
	id       TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id   TEXT NOT NULL REFERENCES search_runs(id),
	rank     INTEGER NOT NULL,
	name     TEXT NOT NULL,
	domain   TEXT,
	score    DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS email_log (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	recipient  TEXT NOT NULL,
	company    TEXT,
	subject    TEXT,
	sent       BOOLEAN NOT NULL DEFAULT false,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS company_cache (
	domain    TEXT PRIMARY KEY,
	record    JSONB NOT NULL,
	cached_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_search_runs_created_at ON search_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_search_results_run_id ON search_results(run_id);
CREATE INDEX IF NOT EXISTS idx_email_log_recipient ON email_log(recipient);
CREATE INDEX IF NOT EXISTS idx_email_log_created_at ON email_log(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LogSearch(ctx context.Context, resp *model.SearchResponse) error {
	runID := uuid.New().String()
	now := time.Now().UTC()

	icpJSON, err := json.Marshal(resp.ICP)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal icp")
	}

	var topScore float64
	if len(resp.Companies) > 0 {
		topScore = resp.Companies[0].Score
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_runs (id, icp, total_found, returned, top_score, search_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		runID, icpJSON, resp.TotalFound, len(resp.Companies), topScore, resp.SearchTimeMS, now,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert search run")
	}

	if len(resp.Companies) == 0 {
		return nil
	}

	rows := make([][]any, len(resp.Companies))
	for i, c := range resp.Companies {
		rows[i] = []any{uuid.New().String(), runID, i + 1, c.Name, c.Domain, c.Score}
	}
	_, err = db.CopyFrom(ctx, s.pool, "search_results",
		[]string{"id", "run_id", "rank", "name", "domain", "score"}, rows)
	return eris.Wrap(err, "postgres: copy search results")
}

func (s *PostgresStore) ListSearchRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error) {
	query := `SELECT id, icp, total_found, returned, top_score, search_time_ms, created_at
	          FROM search_runs ORDER BY created_at DESC`
	args := []any{}
	argIdx := 1

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list search runs")
	}
	defer rows.Close()

	var runs []model.SearchRun
	for rows.Next() {
		var r model.SearchRun
		var icpJSON []byte
		if err := rows.Scan(&r.ID, &icpJSON, &r.TotalFound, &r.Returned, &r.TopScore, &r.SearchTimeMS, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search run")
		}
		if err := json.Unmarshal(icpJSON, &r.ICP); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal icp")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list search runs iterate")
}

func (s *PostgresStore) LogEmail(ctx context.Context, log model.EmailLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO email_log (id, recipient, company, subject, sent, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.Recipient, log.Company, log.Subject, log.Sent, log.Error, log.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert email log")
}

func (s *PostgresStore) ListEmailLogs(ctx context.Context, filter EmailFilter) ([]model.EmailLog, error) {
	query := `SELECT id, recipient, company, subject, sent, error, created_at FROM email_log WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Recipient != "" {
		query += fmt.Sprintf(` AND recipient = $%d`, argIdx)
		args = append(args, filter.Recipient)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list email logs")
	}
	defer rows.Close()

	var logs []model.EmailLog
	for rows.Next() {
		var l model.EmailLog
		var errText *string
		if err := rows.Scan(&l.ID, &l.Recipient, &l.Company, &l.Subject, &l.Sent, &errText, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan email log")
		}
		if errText != nil {
			l.Error = *errText
		}
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: list email logs iterate")
}

func (s *PostgresStore) CacheCompany(ctx context.Context, rec model.CompanyRecord) error {
	if rec.Domain == "" {
		return eris.New("postgres: company domain is required")
	}

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal company")
	}

	_, err = db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "company_cache",
		Columns:      []string{"domain", "record", "cached_at"},
		ConflictKeys: []string{"domain"},
	}, [][]any{{rec.Domain, recordJSON, time.Now().UTC()}})
	return eris.Wrap(err, "postgres: cache company")
}

func (s *PostgresStore) CachedCompany(ctx context.Context, domain string) (*model.CompanyRecord, error) {
	var recordJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM company_cache WHERE domain = $1`, domain,
	).Scan(&recordJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached company")
	}

	var rec model.CompanyRecord
	if err := json.Unmarshal(recordJSON, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached company")
	}
	return &rec, nil
}
