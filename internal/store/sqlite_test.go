package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
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

func seedBusiness(t *testing.T, st *SQLiteStore) *model.Business {
	t.Helper()
	b, err := st.CreateBusiness(context.Background(), "Acme Co")
	require.NoError(t, err)
	return b
}

// --- Businesses ---

func TestSQLite_Business_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	b := seedBusiness(t, st)
	assert.NotEmpty(t, b.ID)

	got, err := st.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", got.Name)
}

func TestSQLite_Business_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetBusiness(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// --- Queries ---

func TestSQLite_Query_ActiveFiltering(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)

	q1, err := st.CreateQuery(ctx, b.ID, "best pizza in town")
	require.NoError(t, err)
	_, err = st.CreateQuery(ctx, b.ID, "best burgers in town")
	require.NoError(t, err)

	require.NoError(t, st.SetQueryActive(ctx, q1.ID, false))

	all, err := st.ListQueries(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := st.ListActiveQueries(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "best burgers in town", active[0].Text)
}

func TestSQLite_Query_CreationOrderPreserved(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)

	texts := []string{"first", "second", "third"}
	for _, txt := range texts {
		_, err := st.CreateQuery(ctx, b.ID, txt)
		require.NoError(t, err)
	}

	got, err := st.ListActiveQueries(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, q := range got {
		assert.Equal(t, texts[i], q.Text)
	}
}

// --- Providers ---

func TestSQLite_Provider_UpsertAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := model.Provider{
		ID:           "openai",
		Canonical:    model.ProviderOpenAI,
		Name:         "OpenAI",
		DefaultModel: "gpt-4o-mini",
		Active:       true,
	}
	require.NoError(t, st.UpsertProvider(ctx, p))

	// update in place
	p.DefaultModel = "gpt-4o"
	require.NoError(t, st.UpsertProvider(ctx, p))

	got, err := st.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gpt-4o", got[0].DefaultModel)
	assert.Equal(t, model.ProviderOpenAI, got[0].Canonical)
}

func TestSQLite_Provider_ActiveFiltering(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertProvider(ctx, model.Provider{
		ID: "openai", Canonical: model.ProviderOpenAI, Name: "OpenAI", DefaultModel: "gpt-4o-mini", Active: true,
	}))
	require.NoError(t, st.UpsertProvider(ctx, model.Provider{
		ID: "mistral", Canonical: model.ProviderMistral, Name: "Mistral", DefaultModel: "mistral-small-latest", Active: false,
	}))

	active, err := st.ListActiveProviders(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "openai", active[0].ID)
}

// --- Runs ---

func TestSQLite_Run_CreateGetUpdate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)

	run, err := st.CreateRun(ctx, b.ID, 2, 30)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPending, run.Status)
	assert.Equal(t, 2, run.TotalQueries)
	assert.Equal(t, 30, run.TotalLLMCalls)

	running := model.RunStatusRunning
	calls := 5
	require.NoError(t, st.UpdateRun(ctx, run.ID, model.RunPatch{
		Status:            &running,
		CompletedLLMCalls: &calls,
	}))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Equal(t, 5, got.CompletedLLMCalls)
	// untouched fields survive a partial patch
	assert.Equal(t, 2, got.TotalQueries)
	assert.Nil(t, got.CompletedAt)
}

func TestSQLite_Run_CompleteWithTimestamp(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)

	run, err := st.CreateRun(ctx, b.ID, 1, 1)
	require.NoError(t, err)

	done := model.RunStatusCompleted
	now := time.Now().UTC()
	require.NoError(t, st.UpdateRun(ctx, run.ID, model.RunPatch{
		Status:      &done,
		CompletedAt: &now,
	}))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestSQLite_Run_UpdateNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	failed := model.RunStatusFailed
	err := st.UpdateRun(context.Background(), "missing", model.RunPatch{Status: &failed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_Run_ListFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)

	r1, err := st.CreateRun(ctx, b.ID, 1, 1)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, b.ID, 1, 1)
	require.NoError(t, err)

	running := model.RunStatusRunning
	require.NoError(t, st.UpdateRun(ctx, r1.ID, model.RunPatch{Status: &running}))

	got, err := st.ListRuns(ctx, RunFilter{BusinessID: b.ID, Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r1.ID, got[0].ID)

	got, err = st.ListRuns(ctx, RunFilter{BusinessID: b.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// --- Attempts ---

func TestSQLite_Attempts_BulkInsertAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)
	q, err := st.CreateQuery(ctx, b.ID, "best pizza")
	require.NoError(t, err)
	run, err := st.CreateRun(ctx, b.ID, 1, 3)
	require.NoError(t, err)

	rank := 2
	attempts := []model.RankingAttempt{
		{RunID: run.ID, QueryID: q.ID, ProviderID: "openai", AttemptNumber: 1,
			ParsedRanking: []string{"Luigi's", "Acme Co", "Mario's"}, TargetRank: &rank, Success: true, ResponseTimeMs: 450},
		{RunID: run.ID, QueryID: q.ID, ProviderID: "openai", AttemptNumber: 2,
			ParsedRanking: []string{}, Success: false, ErrorMessage: "timeout"},
	}
	require.NoError(t, st.InsertAttempts(ctx, attempts))

	got, err := st.ListAttemptsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"Luigi's", "Acme Co", "Mario's"}, got[0].ParsedRanking)
	require.NotNil(t, got[0].TargetRank)
	assert.Equal(t, 2, *got[0].TargetRank)
	assert.True(t, got[0].Success)

	assert.False(t, got[1].Success)
	assert.Nil(t, got[1].TargetRank)
	assert.Equal(t, "timeout", got[1].ErrorMessage)
}

func TestSQLite_Attempts_EmptyInsertIsNoop(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.InsertAttempts(context.Background(), nil))
}

// --- Competitor results ---

func TestSQLite_Competitors_ReplaceIsAtomicPerQuery(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)
	q, err := st.CreateQuery(ctx, b.ID, "best pizza")
	require.NoError(t, err)
	run, err := st.CreateRun(ctx, b.ID, 1, 3)
	require.NoError(t, err)

	first := []model.CompetitorResult{
		{RunID: run.ID, QueryID: q.ID, Name: "Acme Co", AverageRank: 2.67, BestRank: 2, WorstRank: 4,
			Appearances: 3, TotalAttempts: 3, WeightedScore: 2.67,
			Providers: []string{"openai"}, Ranks: []int{2, 2, 4}, IsTarget: true},
		{RunID: run.ID, QueryID: q.ID, Name: "Luigi's", AverageRank: 1, BestRank: 1, WorstRank: 1,
			Appearances: 3, TotalAttempts: 3, WeightedScore: 1,
			Providers: []string{"openai"}, Ranks: []int{1, 1, 1}},
	}
	require.NoError(t, st.ReplaceCompetitorResults(ctx, run.ID, q.ID, first))

	// re-aggregation replaces prior rows wholesale
	second := []model.CompetitorResult{
		{RunID: run.ID, QueryID: q.ID, Name: "Acme Co", AverageRank: 2, BestRank: 2, WorstRank: 2,
			Appearances: 1, TotalAttempts: 1, WeightedScore: 2,
			Providers: []string{"openai"}, Ranks: []int{2}, IsTarget: true},
	}
	require.NoError(t, st.ReplaceCompetitorResults(ctx, run.ID, q.ID, second))

	got, err := st.ListCompetitorResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Co", got[0].Name)
	assert.Equal(t, []int{2}, got[0].Ranks)
	assert.Equal(t, []string{"openai"}, got[0].Providers)
	assert.True(t, got[0].IsTarget)
}

func TestSQLite_Competitors_ReplaceWithEmptyClears(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st)
	q, err := st.CreateQuery(ctx, b.ID, "best pizza")
	require.NoError(t, err)
	run, err := st.CreateRun(ctx, b.ID, 1, 1)
	require.NoError(t, err)

	require.NoError(t, st.ReplaceCompetitorResults(ctx, run.ID, q.ID, []model.CompetitorResult{
		{RunID: run.ID, QueryID: q.ID, Name: "Acme Co", AverageRank: 1, BestRank: 1, WorstRank: 1,
			Appearances: 1, TotalAttempts: 1, WeightedScore: 1, Providers: []string{"openai"}, Ranks: []int{1}},
	}))
	require.NoError(t, st.ReplaceCompetitorResults(ctx, run.ID, q.ID, nil))

	got, err := st.ListCompetitorResults(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
