package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS queries (
	id          TEXT PRIMARY KEY,
	business_id TEXT NOT NULL REFERENCES businesses(id),
	text        TEXT NOT NULL,
	active      INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS providers (
	id            TEXT PRIMARY KEY,
	canonical     TEXT NOT NULL,
	name          TEXT NOT NULL,
	default_model TEXT NOT NULL,
	active        INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id                  TEXT PRIMARY KEY,
	business_id         TEXT NOT NULL REFERENCES businesses(id),
	status              TEXT NOT NULL DEFAULT 'pending',
	total_queries       INTEGER NOT NULL DEFAULT 0,
	completed_queries   INTEGER NOT NULL DEFAULT 0,
	total_llm_calls     INTEGER NOT NULL DEFAULT 0,
	completed_llm_calls INTEGER NOT NULL DEFAULT 0,
	error_message       TEXT,
	started_at          DATETIME NOT NULL,
	completed_at        DATETIME,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ranking_attempts (
	id               TEXT PRIMARY KEY,
	run_id           TEXT NOT NULL REFERENCES analysis_runs(id),
	query_id         TEXT NOT NULL REFERENCES queries(id),
	provider_id      TEXT NOT NULL,
	attempt_number   INTEGER NOT NULL,
	parsed_ranking   TEXT NOT NULL DEFAULT '[]',
	target_rank      INTEGER,
	success          INTEGER NOT NULL DEFAULT 0,
	error_message    TEXT,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS competitor_results (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES analysis_runs(id),
	query_id       TEXT NOT NULL REFERENCES queries(id),
	name           TEXT NOT NULL,
	average_rank   REAL NOT NULL,
	best_rank      INTEGER NOT NULL,
	worst_rank     INTEGER NOT NULL,
	appearances    INTEGER NOT NULL,
	total_attempts INTEGER NOT NULL,
	weighted_score REAL NOT NULL,
	providers      TEXT NOT NULL DEFAULT '[]',
	ranks          TEXT NOT NULL DEFAULT '[]',
	is_target      INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_queries_business_id ON queries(business_id);
CREATE INDEX IF NOT EXISTS idx_runs_business_id ON analysis_runs(business_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON analysis_runs(status);
CREATE INDEX IF NOT EXISTS idx_attempts_run_id ON ranking_attempts(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_run_query ON ranking_attempts(run_id, query_id);
CREATE INDEX IF NOT EXISTS idx_competitors_run_id ON competitor_results(run_id);
CREATE INDEX IF NOT EXISTS idx_competitors_run_query ON competitor_results(run_id, query_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBusiness(ctx context.Context, name string) (*model.Business, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO businesses (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert business")
	}
	return &model.Business{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	var b model.Business
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM businesses WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("business not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get business %s", id)
	}
	return &b, nil
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context) ([]model.Business, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM businesses ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan business")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list businesses iterate")
}

func (s *SQLiteStore) CreateQuery(ctx context.Context, businessID, text string) (*model.Query, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (id, business_id, text, active, created_at) VALUES (?, ?, ?, 1, ?)`,
		id, businessID, text, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert query for business %s", businessID)
	}
	return &model.Query{ID: id, BusinessID: businessID, Text: text, Active: true, CreatedAt: now}, nil
}

func (s *SQLiteStore) SetQueryActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queries SET active = ? WHERE id = ?`, boolToInt(active), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set query active %s", id)
	}
	return checkRowsAffected(res, "query", id)
}

func (s *SQLiteStore) ListQueries(ctx context.Context, businessID string) ([]model.Query, error) {
	return s.listQueries(ctx,
		`SELECT id, business_id, text, active, created_at FROM queries WHERE business_id = ? ORDER BY created_at`,
		businessID)
}

func (s *SQLiteStore) ListActiveQueries(ctx context.Context, businessID string) ([]model.Query, error) {
	return s.listQueries(ctx,
		`SELECT id, business_id, text, active, created_at FROM queries WHERE business_id = ? AND active = 1 ORDER BY created_at`,
		businessID)
}

func (s *SQLiteStore) listQueries(ctx context.Context, query string, args ...any) ([]model.Query, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list queries")
	}
	defer rows.Close()

	var out []model.Query
	for rows.Next() {
		var q model.Query
		var active int
		if err := rows.Scan(&q.ID, &q.BusinessID, &q.Text, &active, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan query")
		}
		q.Active = active != 0
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list queries iterate")
}

func (s *SQLiteStore) UpsertProvider(ctx context.Context, p model.Provider) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO providers (id, canonical, name, default_model, active) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET canonical = ?, name = ?, default_model = ?, active = ?`,
		p.ID, string(p.Canonical), p.Name, p.DefaultModel, boolToInt(p.Active),
		string(p.Canonical), p.Name, p.DefaultModel, boolToInt(p.Active),
	)
	return eris.Wrapf(err, "sqlite: upsert provider %s", p.ID)
}

func (s *SQLiteStore) ListProviders(ctx context.Context) ([]model.Provider, error) {
	return s.listProviders(ctx,
		`SELECT id, canonical, name, default_model, active FROM providers ORDER BY name`)
}

func (s *SQLiteStore) ListActiveProviders(ctx context.Context) ([]model.Provider, error) {
	return s.listProviders(ctx,
		`SELECT id, canonical, name, default_model, active FROM providers WHERE active = 1 ORDER BY name`)
}

func (s *SQLiteStore) listProviders(ctx context.Context, query string) ([]model.Provider, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list providers")
	}
	defer rows.Close()

	var out []model.Provider
	for rows.Next() {
		var p model.Provider
		var canonical string
		var active int
		if err := rows.Scan(&p.ID, &canonical, &p.Name, &p.DefaultModel, &active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider")
		}
		p.Canonical = model.ProviderID(canonical)
		p.Active = active != 0
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list providers iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, businessID string, totalQueries, totalLLMCalls int) (*model.AnalysisRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, business_id, status, total_queries, total_llm_calls, started_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, businessID, string(model.RunStatusPending), totalQueries, totalLLMCalls, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run for business %s", businessID)
	}
	return &model.AnalysisRun{
		ID:            id,
		BusinessID:    businessID,
		Status:        model.RunStatusPending,
		TotalQueries:  totalQueries,
		TotalLLMCalls: totalLLMCalls,
		StartedAt:     now,
		CreatedAt:     now,
	}, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business_id, status, total_queries, completed_queries, total_llm_calls,
		        completed_llm_calls, error_message, started_at, completed_at, created_at
		 FROM analysis_runs WHERE id = ?`, runID,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	query := `SELECT id, business_id, status, total_queries, completed_queries, total_llm_calls,
	                 completed_llm_calls, error_message, started_at, completed_at, created_at
	          FROM analysis_runs WHERE 1=1`
	var args []any

	if filter.BusinessID != "" {
		query += ` AND business_id = ?`
		args = append(args, filter.BusinessID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
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
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, runID string, patch model.RunPatch) error {
	query := `UPDATE analysis_runs SET id = id`
	var args []any

	if patch.Status != nil {
		query += `, status = ?`
		args = append(args, string(*patch.Status))
	}
	if patch.CompletedQueries != nil {
		query += `, completed_queries = ?`
		args = append(args, *patch.CompletedQueries)
	}
	if patch.CompletedLLMCalls != nil {
		query += `, completed_llm_calls = ?`
		args = append(args, *patch.CompletedLLMCalls)
	}
	if patch.TotalQueries != nil {
		query += `, total_queries = ?`
		args = append(args, *patch.TotalQueries)
	}
	if patch.TotalLLMCalls != nil {
		query += `, total_llm_calls = ?`
		args = append(args, *patch.TotalLLMCalls)
	}
	if patch.ErrorMessage != nil {
		query += `, error_message = ?`
		args = append(args, *patch.ErrorMessage)
	}
	if patch.CompletedAt != nil {
		query += `, completed_at = ?`
		args = append(args, *patch.CompletedAt)
	}
	query += ` WHERE id = ?`
	args = append(args, runID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) InsertAttempts(ctx context.Context, attempts []model.RankingAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert attempts")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ranking_attempts
		 (id, run_id, query_id, provider_id, attempt_number, parsed_ranking, target_rank, success, error_message, response_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert attempt")
	}
	defer stmt.Close()

	for _, a := range attempts {
		id := a.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rankingJSON, err := json.Marshal(a.ParsedRanking)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal parsed ranking")
		}
		if _, err := stmt.ExecContext(ctx,
			id, a.RunID, a.QueryID, a.ProviderID, a.AttemptNumber,
			string(rankingJSON), a.TargetRank, boolToInt(a.Success),
			a.ErrorMessage, a.ResponseTimeMs, createdAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert attempt for run %s", a.RunID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit insert attempts")
}

func (s *SQLiteStore) ListAttemptsForRun(ctx context.Context, runID string) ([]model.RankingAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, query_id, provider_id, attempt_number, parsed_ranking, target_rank,
		        success, error_message, response_time_ms, created_at
		 FROM ranking_attempts WHERE run_id = ? ORDER BY created_at, attempt_number`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list attempts for run %s", runID)
	}
	defer rows.Close()

	var out []model.RankingAttempt
	for rows.Next() {
		var a model.RankingAttempt
		var rankingJSON string
		var success int
		var errMsg sql.NullString
		if err := rows.Scan(&a.ID, &a.RunID, &a.QueryID, &a.ProviderID, &a.AttemptNumber,
			&rankingJSON, &a.TargetRank, &success, &errMsg, &a.ResponseTimeMs, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attempt")
		}
		if err := json.Unmarshal([]byte(rankingJSON), &a.ParsedRanking); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal parsed ranking")
		}
		a.Success = success != 0
		a.ErrorMessage = errMsg.String
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list attempts iterate")
}

func (s *SQLiteStore) ReplaceCompetitorResults(ctx context.Context, runID, queryID string, results []model.CompetitorResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace competitors")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM competitor_results WHERE run_id = ? AND query_id = ?`,
		runID, queryID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: delete competitors for run %s", runID)
	}

	for _, c := range results {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		providersJSON, err := json.Marshal(c.Providers)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal providers")
		}
		ranksJSON, err := json.Marshal(c.Ranks)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal ranks")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO competitor_results
			 (id, run_id, query_id, name, average_rank, best_rank, worst_rank, appearances,
			  total_attempts, weighted_score, providers, ranks, is_target, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, runID, queryID, c.Name, c.AverageRank, c.BestRank, c.WorstRank,
			c.Appearances, c.TotalAttempts, c.WeightedScore,
			string(providersJSON), string(ranksJSON), boolToInt(c.IsTarget), createdAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert competitor %s", c.Name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace competitors")
}

func (s *SQLiteStore) ListCompetitorResults(ctx context.Context, runID string) ([]model.CompetitorResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, query_id, name, average_rank, best_rank, worst_rank, appearances,
		        total_attempts, weighted_score, providers, ranks, is_target, created_at
		 FROM competitor_results WHERE run_id = ? ORDER BY query_id, weighted_score`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list competitors for run %s", runID)
	}
	defer rows.Close()

	var out []model.CompetitorResult
	for rows.Next() {
		var c model.CompetitorResult
		var providersJSON, ranksJSON string
		var isTarget int
		if err := rows.Scan(&c.ID, &c.RunID, &c.QueryID, &c.Name, &c.AverageRank, &c.BestRank,
			&c.WorstRank, &c.Appearances, &c.TotalAttempts, &c.WeightedScore,
			&providersJSON, &ranksJSON, &isTarget, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		if err := json.Unmarshal([]byte(providersJSON), &c.Providers); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal providers")
		}
		if err := json.Unmarshal([]byte(ranksJSON), &c.Ranks); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal ranks")
		}
		c.IsTarget = isTarget != 0
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list competitors iterate")
}

// helpers

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.AnalysisRun, error) {
	var r model.AnalysisRun
	var errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&r.ID, &r.BusinessID, &r.Status, &r.TotalQueries, &r.CompletedQueries,
		&r.TotalLLMCalls, &r.CompletedLLMCalls, &errMsg, &r.StartedAt, &completedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ErrorMessage = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
