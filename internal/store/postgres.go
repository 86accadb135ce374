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

	"github.com/filippefrulli/ranklens-sub000/internal/db"
	"github.com/filippefrulli/ranklens-sub000/internal/model"
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

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot path operations.
var preparedStatements = map[string]string{
	"get_run": `SELECT id, business_id, status, total_queries, completed_queries, total_llm_calls,
	            completed_llm_calls, error_message, started_at, completed_at, created_at
	            FROM analysis_runs WHERE id = $1`,
	"insert_run": `INSERT INTO analysis_runs (id, business_id, status, total_queries, total_llm_calls, started_at, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"list_active_queries": `SELECT id, business_id, text, active, created_at FROM queries
	                        WHERE business_id = $1 AND active = true ORDER BY created_at`,
	"list_active_providers": `SELECT id, canonical, name, default_model, active FROM providers
	                          WHERE active = true ORDER BY name`,
	"delete_competitors": `DELETE FROM competitor_results WHERE run_id = $1 AND query_id = $2`,
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

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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

// NewPostgresWithPool wraps an existing pool. Tests use this with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS queries (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	business_id TEXT NOT NULL REFERENCES businesses(id),
	text        TEXT NOT NULL,
	active      BOOLEAN NOT NULL DEFAULT true,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS providers (
	id            TEXT PRIMARY KEY,
	canonical     TEXT NOT NULL,
	name          TEXT NOT NULL,
	default_model TEXT NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	business_id         TEXT NOT NULL REFERENCES businesses(id),
	status              TEXT NOT NULL DEFAULT 'pending',
	total_queries       INTEGER NOT NULL DEFAULT 0,
	completed_queries   INTEGER NOT NULL DEFAULT 0,
	total_llm_calls     INTEGER NOT NULL DEFAULT 0,
	completed_llm_calls INTEGER NOT NULL DEFAULT 0,
	error_message       TEXT,
	started_at          TIMESTAMPTZ NOT NULL,
	completed_at        TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ranking_attempts (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id           TEXT NOT NULL REFERENCES analysis_runs(id),
	query_id         TEXT NOT NULL REFERENCES queries(id),
	provider_id      TEXT NOT NULL,
	attempt_number   INTEGER NOT NULL,
	parsed_ranking   JSONB NOT NULL DEFAULT '[]',
	target_rank      INTEGER,
	success          BOOLEAN NOT NULL DEFAULT false,
	error_message    TEXT,
	response_time_ms BIGINT NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS competitor_results (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id         TEXT NOT NULL REFERENCES analysis_runs(id),
	query_id       TEXT NOT NULL REFERENCES queries(id),
	name           TEXT NOT NULL,
	average_rank   DOUBLE PRECISION NOT NULL,
	best_rank      INTEGER NOT NULL,
	worst_rank     INTEGER NOT NULL,
	appearances    INTEGER NOT NULL,
	total_attempts INTEGER NOT NULL,
	weighted_score DOUBLE PRECISION NOT NULL,
	providers      JSONB NOT NULL DEFAULT '[]',
	ranks          JSONB NOT NULL DEFAULT '[]',
	is_target      BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_queries_business_id ON queries(business_id);
CREATE INDEX IF NOT EXISTS idx_runs_business_id ON analysis_runs(business_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON analysis_runs(status);
CREATE INDEX IF NOT EXISTS idx_attempts_run_id ON ranking_attempts(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_run_query ON ranking_attempts(run_id, query_id);
CREATE INDEX IF NOT EXISTS idx_competitors_run_id ON competitor_results(run_id);
CREATE INDEX IF NOT EXISTS idx_competitors_run_query ON competitor_results(run_id, query_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

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

func (s *PostgresStore) CreateBusiness(ctx context.Context, name string) (*model.Business, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO businesses (id, name, created_at) VALUES ($1, $2, $3)`,
		id, name, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert business")
	}
	return &model.Business{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *PostgresStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	var b model.Business
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM businesses WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("business not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get business %s", id)
	}
	return &b, nil
}

func (s *PostgresStore) ListBusinesses(ctx context.Context) ([]model.Business, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at FROM businesses ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan business")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list businesses iterate")
}

func (s *PostgresStore) CreateQuery(ctx context.Context, businessID, text string) (*model.Query, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO queries (id, business_id, text, active, created_at) VALUES ($1, $2, $3, true, $4)`,
		id, businessID, text, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert query for business %s", businessID)
	}
	return &model.Query{ID: id, BusinessID: businessID, Text: text, Active: true, CreatedAt: now}, nil
}

func (s *PostgresStore) SetQueryActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE queries SET active = $1 WHERE id = $2`, active, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set query active %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("query not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListQueries(ctx context.Context, businessID string) ([]model.Query, error) {
	return s.listQueries(ctx,
		`SELECT id, business_id, text, active, created_at FROM queries WHERE business_id = $1 ORDER BY created_at`,
		businessID)
}

func (s *PostgresStore) ListActiveQueries(ctx context.Context, businessID string) ([]model.Query, error) {
	return s.listQueries(ctx,
		`SELECT id, business_id, text, active, created_at FROM queries
		 WHERE business_id = $1 AND active = true ORDER BY created_at`,
		businessID)
}

func (s *PostgresStore) listQueries(ctx context.Context, query string, args ...any) ([]model.Query, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list queries")
	}
	defer rows.Close()

	var out []model.Query
	for rows.Next() {
		var q model.Query
		if err := rows.Scan(&q.ID, &q.BusinessID, &q.Text, &q.Active, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan query")
		}
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list queries iterate")
}

func (s *PostgresStore) UpsertProvider(ctx context.Context, p model.Provider) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO providers (id, canonical, name, default_model, active) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET canonical = $2, name = $3, default_model = $4, active = $5`,
		p.ID, string(p.Canonical), p.Name, p.DefaultModel, p.Active,
	)
	return eris.Wrapf(err, "postgres: upsert provider %s", p.ID)
}

func (s *PostgresStore) ListProviders(ctx context.Context) ([]model.Provider, error) {
	return s.listProviders(ctx,
		`SELECT id, canonical, name, default_model, active FROM providers ORDER BY name`)
}

func (s *PostgresStore) ListActiveProviders(ctx context.Context) ([]model.Provider, error) {
	return s.listProviders(ctx,
		`SELECT id, canonical, name, default_model, active FROM providers WHERE active = true ORDER BY name`)
}

func (s *PostgresStore) listProviders(ctx context.Context, query string) ([]model.Provider, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list providers")
	}
	defer rows.Close()

	var out []model.Provider
	for rows.Next() {
		var p model.Provider
		var canonical string
		if err := rows.Scan(&p.ID, &canonical, &p.Name, &p.DefaultModel, &p.Active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan provider")
		}
		p.Canonical = model.ProviderID(canonical)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list providers iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, businessID string, totalQueries, totalLLMCalls int) (*model.AnalysisRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_runs (id, business_id, status, total_queries, total_llm_calls, started_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, businessID, string(model.RunStatusPending), totalQueries, totalLLMCalls, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert run for business %s", businessID)
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

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error) {
	var r model.AnalysisRun
	var errMsg *string
	var completedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, business_id, status, total_queries, completed_queries, total_llm_calls,
		        completed_llm_calls, error_message, started_at, completed_at, created_at
		 FROM analysis_runs WHERE id = $1`, runID,
	).Scan(&r.ID, &r.BusinessID, &r.Status, &r.TotalQueries, &r.CompletedQueries,
		&r.TotalLLMCalls, &r.CompletedLLMCalls, &errMsg, &r.StartedAt, &completedAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("run not found: %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if errMsg != nil {
		r.ErrorMessage = *errMsg
	}
	r.CompletedAt = completedAt
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	query := `SELECT id, business_id, status, total_queries, completed_queries, total_llm_calls,
	                 completed_llm_calls, error_message, started_at, completed_at, created_at
	          FROM analysis_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.BusinessID != "" {
		query += fmt.Sprintf(` AND business_id = $%d`, argIdx)
		args = append(args, filter.BusinessID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
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
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		var r model.AnalysisRun
		var errMsg *string
		var completedAt *time.Time
		if err := rows.Scan(&r.ID, &r.BusinessID, &r.Status, &r.TotalQueries, &r.CompletedQueries,
			&r.TotalLLMCalls, &r.CompletedLLMCalls, &errMsg, &r.StartedAt, &completedAt, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if errMsg != nil {
			r.ErrorMessage = *errMsg
		}
		r.CompletedAt = completedAt
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) UpdateRun(ctx context.Context, runID string, patch model.RunPatch) error {
	query := `UPDATE analysis_runs SET id = id`
	args := []any{}
	argIdx := 1

	set := func(col string, val any) {
		query += fmt.Sprintf(`, %s = $%d`, col, argIdx)
		args = append(args, val)
		argIdx++
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.CompletedQueries != nil {
		set("completed_queries", *patch.CompletedQueries)
	}
	if patch.CompletedLLMCalls != nil {
		set("completed_llm_calls", *patch.CompletedLLMCalls)
	}
	if patch.TotalQueries != nil {
		set("total_queries", *patch.TotalQueries)
	}
	if patch.TotalLLMCalls != nil {
		set("total_llm_calls", *patch.TotalLLMCalls)
	}
	if patch.ErrorMessage != nil {
		set("error_message", *patch.ErrorMessage)
	}
	if patch.CompletedAt != nil {
		set("completed_at", *patch.CompletedAt)
	}
	query += fmt.Sprintf(` WHERE id = $%d`, argIdx)
	args = append(args, runID)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

// attemptColumns is the COPY column order for bulk attempt inserts.
var attemptColumns = []string{
	"id", "run_id", "query_id", "provider_id", "attempt_number",
	"parsed_ranking", "target_rank", "success", "error_message",
	"response_time_ms", "created_at",
}

func (s *PostgresStore) InsertAttempts(ctx context.Context, attempts []model.RankingAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(attempts))
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
			return eris.Wrap(err, "postgres: marshal parsed ranking")
		}
		rows = append(rows, []any{
			id, a.RunID, a.QueryID, a.ProviderID, a.AttemptNumber,
			rankingJSON, a.TargetRank, a.Success, a.ErrorMessage,
			a.ResponseTimeMs, createdAt,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "ranking_attempts", attemptColumns, rows)
	return eris.Wrap(err, "postgres: insert attempts")
}

func (s *PostgresStore) ListAttemptsForRun(ctx context.Context, runID string) ([]model.RankingAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, query_id, provider_id, attempt_number, parsed_ranking, target_rank,
		        success, error_message, response_time_ms, created_at
		 FROM ranking_attempts WHERE run_id = $1 ORDER BY created_at, attempt_number`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list attempts for run %s", runID)
	}
	defer rows.Close()

	var out []model.RankingAttempt
	for rows.Next() {
		var a model.RankingAttempt
		var rankingJSON []byte
		var errMsg *string
		if err := rows.Scan(&a.ID, &a.RunID, &a.QueryID, &a.ProviderID, &a.AttemptNumber,
			&rankingJSON, &a.TargetRank, &a.Success, &errMsg, &a.ResponseTimeMs, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attempt")
		}
		if err := json.Unmarshal(rankingJSON, &a.ParsedRanking); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal parsed ranking")
		}
		if errMsg != nil {
			a.ErrorMessage = *errMsg
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list attempts iterate")
}

func (s *PostgresStore) ReplaceCompetitorResults(ctx context.Context, runID, queryID string, results []model.CompetitorResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace competitors")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM competitor_results WHERE run_id = $1 AND query_id = $2`,
		runID, queryID,
	); err != nil {
		return eris.Wrapf(err, "postgres: delete competitors for run %s", runID)
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
			return eris.Wrap(err, "postgres: marshal providers")
		}
		ranksJSON, err := json.Marshal(c.Ranks)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal ranks")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO competitor_results
			 (id, run_id, query_id, name, average_rank, best_rank, worst_rank, appearances,
			  total_attempts, weighted_score, providers, ranks, is_target, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			id, runID, queryID, c.Name, c.AverageRank, c.BestRank, c.WorstRank,
			c.Appearances, c.TotalAttempts, c.WeightedScore,
			providersJSON, ranksJSON, c.IsTarget, createdAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert competitor %s", c.Name)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace competitors")
}

func (s *PostgresStore) ListCompetitorResults(ctx context.Context, runID string) ([]model.CompetitorResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, query_id, name, average_rank, best_rank, worst_rank, appearances,
		        total_attempts, weighted_score, providers, ranks, is_target, created_at
		 FROM competitor_results WHERE run_id = $1 ORDER BY query_id, weighted_score`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list competitors for run %s", runID)
	}
	defer rows.Close()

	var out []model.CompetitorResult
	for rows.Next() {
		var c model.CompetitorResult
		var providersJSON, ranksJSON []byte
		if err := rows.Scan(&c.ID, &c.RunID, &c.QueryID, &c.Name, &c.AverageRank, &c.BestRank,
			&c.WorstRank, &c.Appearances, &c.TotalAttempts, &c.WeightedScore,
			&providersJSON, &ranksJSON, &c.IsTarget, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		if err := json.Unmarshal(providersJSON, &c.Providers); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal providers")
		}
		if err := json.Unmarshal(ranksJSON, &c.Ranks); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal ranks")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list competitors iterate")
}
