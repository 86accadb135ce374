package store

import (
	"context"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
)

// RunFilter specifies criteria for listing analysis runs.
type RunFilter struct {
	BusinessID string          `json:"business_id,omitempty"`
	Status     model.RunStatus `json:"status,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the analysis engine.
type Store interface {
	// Businesses
	CreateBusiness(ctx context.Context, name string) (*model.Business, error)
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	ListBusinesses(ctx context.Context) ([]model.Business, error)

	// Queries
	CreateQuery(ctx context.Context, businessID, text string) (*model.Query, error)
	SetQueryActive(ctx context.Context, id string, active bool) error
	ListQueries(ctx context.Context, businessID string) ([]model.Query, error)
	ListActiveQueries(ctx context.Context, businessID string) ([]model.Query, error)

	// Providers
	UpsertProvider(ctx context.Context, p model.Provider) error
	ListProviders(ctx context.Context) ([]model.Provider, error)
	ListActiveProviders(ctx context.Context) ([]model.Provider, error)

	// Runs
	CreateRun(ctx context.Context, businessID string, totalQueries, totalLLMCalls int) (*model.AnalysisRun, error)
	GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error)
	UpdateRun(ctx context.Context, runID string, patch model.RunPatch) error

	// Attempts
	InsertAttempts(ctx context.Context, attempts []model.RankingAttempt) error
	ListAttemptsForRun(ctx context.Context, runID string) ([]model.RankingAttempt, error)

	// Competitor results
	ReplaceCompetitorResults(ctx context.Context, runID, queryID string, results []model.CompetitorResult) error
	ListCompetitorResults(ctx context.Context, runID string) ([]model.CompetitorResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
