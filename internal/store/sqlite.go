package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
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
	id             TEXT PRIMARY KEY,
	icp            TEXT NOT NULL,
	total_found    INTEGER NOT NULL DEFAULT 0,
	returned       INTEGER NOT NULL DEFAULT 0,
	top_score      REAL NOT NULL DEFAULT 0,
	search_time_ms INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS search_results (
	id       TEXT PRIMARY KEY,
	run_id   TEXT NOT NULL REFERENCES search_runs(id),
	rank     INTEGER NOT NULL,
	name     TEXT NOT NULL,
	domain   TEXT,
	score    REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS email_log (
	id         TEXT PRIMARY KEY,
	recipient  TEXT NOT NULL,
	company    TEXT,
	subject    TEXT,
	sent       INTEGER NOT NULL DEFAULT 0,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS company_cache (
	domain    TEXT PRIMARY KEY,
	record    TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_search_runs_created_at ON search_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_search_results_run_id ON search_results(run_id);
CREATE INDEX IF NOT EXISTS idx_email_log_recipient ON email_log(recipient);
CREATE INDEX IF NOT EXISTS idx_email_log_created_at ON email_log(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LogSearch(ctx context.Context, resp *model.SearchResponse) error {
	runID := uuid.New().String()
	now := time.Now().UTC()

	icpJSON, err := json.Marshal(resp.ICP)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal icp")
	}

	var topScore float64
	if len(resp.Companies) > 0 {
		topScore = resp.Companies[0].Score
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO search_runs (id, icp, total_found, returned, top_score, search_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, string(icpJSON), resp.TotalFound, len(resp.Companies), topScore, resp.SearchTimeMS, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert search run")
	}

	for i, c := range resp.Companies {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO search_results (id, run_id, rank, name, domain, score) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, i+1, c.Name, c.Domain, c.Score,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert search result")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit search run")
}

func (s *SQLiteStore) ListSearchRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error) {
	query := `SELECT id, icp, total_found, returned, top_score, search_time_ms, created_at
	          FROM search_runs ORDER BY created_at DESC`
	var args []any

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list search runs")
	}
	defer rows.Close()

	var runs []model.SearchRun
	for rows.Next() {
		var r model.SearchRun
		var icpJSON string
		if err := rows.Scan(&r.ID, &icpJSON, &r.TotalFound, &r.Returned, &r.TopScore, &r.SearchTimeMS, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search run")
		}
		if err := json.Unmarshal([]byte(icpJSON), &r.ICP); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal icp")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list search runs iterate")
}

func (s *SQLiteStore) LogEmail(ctx context.Context, log model.EmailLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO email_log (id, recipient, company, subject, sent, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.Recipient, log.Company, log.Subject, log.Sent, log.Error, log.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert email log")
}

func (s *SQLiteStore) ListEmailLogs(ctx context.Context, filter EmailFilter) ([]model.EmailLog, error) {
	query := `SELECT id, recipient, company, subject, sent, error, created_at FROM email_log WHERE 1=1`
	var args []any

	if filter.Recipient != "" {
		query += ` AND recipient = ?`
		args = append(args, filter.Recipient)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list email logs")
	}
	defer rows.Close()

	var logs []model.EmailLog
	for rows.Next() {
		var l model.EmailLog
		var errText sql.NullString
		if err := rows.Scan(&l.ID, &l.Recipient, &l.Company, &l.Subject, &l.Sent, &errText, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email log")
		}
		l.Error = errText.String
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: list email logs iterate")
}

func (s *SQLiteStore) CacheCompany(ctx context.Context, rec model.CompanyRecord) error {
	if rec.Domain == "" {
		return eris.New("sqlite: company domain is required")
	}

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal company")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO company_cache (domain, record, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT(domain) DO UPDATE SET record = excluded.record, cached_at = excluded.cached_at`,
		rec.Domain, string(recordJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: cache company")
}

func (s *SQLiteStore) CachedCompany(ctx context.Context, domain string) (*model.CompanyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record FROM company_cache WHERE domain = ?`, domain,
	)

	var recordJSON string
	err := row.Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached company")
	}

	var rec model.CompanyRecord
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached company")
	}
	return &rec, nil
}
