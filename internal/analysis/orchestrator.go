package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/filippefrulli/ranklens-sub000/internal/llm"
	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/store"
)

// checkpointEvery is the call cadence for persisting progress counters.
const checkpointEvery = 5

// Config tunes a run's shape and pacing.
type Config struct {
	Attempts           int           // attempts per (query, provider), e.g. 10
	RequestedCount     int           // list size asked of each model
	InterAttemptDelay  time.Duration // pause between attempts to one provider
	InterProviderDelay time.Duration // pause between providers within a query
}

// DefaultConfig matches the pacing used in production.
func DefaultConfig() Config {
	return Config{
		Attempts:           10,
		RequestedCount:     10,
		InterAttemptDelay:  time.Second,
		InterProviderDelay: 2 * time.Second,
	}
}

// Orchestrator drives full analysis runs over the store and attempt runner.
type Orchestrator struct {
	store      store.Store
	runner     *Runner
	aggregator *Aggregator
	cfg        Config
}

// NewOrchestrator wires an orchestrator. The aggregator is invoked once at
// the end of every successful run.
func NewOrchestrator(st store.Store, runner *Runner, aggregator *Aggregator, cfg Config) *Orchestrator {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultConfig().Attempts
	}
	if cfg.RequestedCount <= 0 {
		cfg.RequestedCount = DefaultConfig().RequestedCount
	}
	return &Orchestrator{store: st, runner: runner, aggregator: aggregator, cfg: cfg}
}

// RunHandle is returned by Start. The caller keeps the run id for polling;
// Wait and Cancel only matter to in-process callers such as tests and the
// batch command.
type RunHandle struct {
	RunID  string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Wait blocks until the run finishes and returns its terminal error, if any.
func (h *RunHandle) Wait() error {
	<-h.done
	return h.err
}

// Cancel stops the in-flight run. The run row is left at its last
// checkpoint; Cancel does not rewrite its status.
func (h *RunHandle) Cancel() {
	h.cancel()
}

// Start validates preconditions, creates the run row, and launches the run
// in a detached goroutine. It returns as soon as the row exists; progress is
// observed by polling the store.
func (o *Orchestrator) Start(ctx context.Context, businessID string) (*RunHandle, error) {
	business, err := o.store.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: resolve business")
	}

	queries, err := o.store.ListActiveQueries(ctx, businessID)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: list active queries")
	}
	if len(queries) == 0 {
		return nil, eris.Errorf("analysis: business %s has no active queries", businessID)
	}

	providers, err := o.store.ListActiveProviders(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: list active providers")
	}
	if len(providers) == 0 {
		return nil, eris.New("analysis: no active providers")
	}

	totalCalls := len(queries) * len(providers) * o.cfg.Attempts
	run, err := o.store.CreateRun(ctx, businessID, len(queries), totalCalls)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: create run")
	}

	// The run outlives the triggering request.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	handle := &RunHandle{RunID: run.ID, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(handle.done)
		handle.err = o.execute(runCtx, run, business.Name, queries, providers)
	}()
	return handle, nil
}

// execute runs the full loop and finalizes the run's terminal status.
func (o *Orchestrator) execute(ctx context.Context, run *model.AnalysisRun, targetName string, queries []model.Query, providers []model.Provider) error {
	logger := zap.L().With(zap.String("run_id", run.ID), zap.String("business_id", run.BusinessID))
	logger.Info("analysis run starting",
		zap.Int("queries", len(queries)),
		zap.Int("providers", len(providers)),
		zap.Int("total_calls", run.TotalLLMCalls))

	running := model.RunStatusRunning
	o.checkpoint(ctx, run.ID, model.RunPatch{Status: &running}, logger)

	if err := o.runLoop(ctx, run, targetName, queries, providers, logger); err != nil {
		failed := model.RunStatusFailed
		msg := err.Error()
		now := time.Now().UTC()
		o.checkpoint(ctx, run.ID, model.RunPatch{
			Status:       &failed,
			ErrorMessage: &msg,
			CompletedAt:  &now,
		}, logger)
		logger.Error("analysis run failed", zap.Error(err))
		return err
	}

	completed := model.RunStatusCompleted
	completedQueries := len(queries)
	completedCalls := run.TotalLLMCalls
	now := time.Now().UTC()
	o.checkpoint(ctx, run.ID, model.RunPatch{
		Status:            &completed,
		CompletedQueries:  &completedQueries,
		CompletedLLMCalls: &completedCalls,
		CompletedAt:       &now,
	}, logger)
	logger.Info("analysis run completed")

	if o.aggregator != nil {
		if _, err := o.aggregator.Aggregate(ctx, run.ID, targetName); err != nil {
			logger.Error("aggregation failed after completed run", zap.Error(err))
		}
	}
	return nil
}

// runLoop iterates queries x providers x attempts sequentially. Only an
// error returned here flips the run to failed; individual attempt failures
// are recorded and the loop continues.
func (o *Orchestrator) runLoop(ctx context.Context, run *model.AnalysisRun, targetName string, queries []model.Query, providers []model.Provider, logger *zap.Logger) error {
	limiter := newPacer(o.cfg.InterAttemptDelay)
	calls := 0

	for qi, query := range queries {
		var attempts []model.RankingAttempt

		for pi, provider := range providers {
			for attempt := 1; attempt <= o.cfg.Attempts; attempt++ {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return eris.Wrap(err, "analysis: pacing interrupted")
					}
				}

				outcome := o.runner.Run(ctx, provider, query, targetName, o.cfg.RequestedCount)
				attempts = append(attempts, toAttempt(run.ID, query.ID, provider.ID, attempt, outcome))
				calls++

				if calls%checkpointEvery == 0 || calls == run.TotalLLMCalls {
					o.checkpoint(ctx, run.ID, model.RunPatch{CompletedLLMCalls: &calls}, logger)
				}

				if outcome.Err != nil && llm.IsAuthError(outcome.Err) {
					logger.Warn("provider auth failure, skipping remaining attempts",
						zap.String("provider", provider.ID),
						zap.String("query_id", query.ID),
						zap.Int("failed_attempt", attempt),
						zap.Error(outcome.Err))
					for skipped := attempt + 1; skipped <= o.cfg.Attempts; skipped++ {
						attempts = append(attempts, model.RankingAttempt{
							RunID:         run.ID,
							QueryID:       query.ID,
							ProviderID:    provider.ID,
							AttemptNumber: skipped,
							ParsedRanking: []string{},
							Success:       false,
							ErrorMessage:  fmt.Sprintf("skipped: provider authentication failed on attempt %d", attempt),
						})
						calls++
					}
					o.checkpoint(ctx, run.ID, model.RunPatch{CompletedLLMCalls: &calls}, logger)
					break
				}
			}

			if pi < len(providers)-1 {
				if err := sleepCtx(ctx, o.cfg.InterProviderDelay); err != nil {
					return eris.Wrap(err, "analysis: pacing interrupted")
				}
			}
		}

		if err := o.store.InsertAttempts(ctx, attempts); err != nil {
			logger.Error("attempt batch save failed, continuing",
				zap.String("query_id", query.ID),
				zap.Int("attempts", len(attempts)),
				zap.Error(err))
		}

		completedQueries := qi + 1
		o.checkpoint(ctx, run.ID, model.RunPatch{CompletedQueries: &completedQueries}, logger)
	}
	return nil
}

// checkpoint persists a partial run update. Progress reporting is advisory,
// so a failed write is logged and swallowed.
func (o *Orchestrator) checkpoint(ctx context.Context, runID string, patch model.RunPatch, logger *zap.Logger) {
	if err := o.store.UpdateRun(ctx, runID, patch); err != nil {
		logger.Warn("run checkpoint failed", zap.Error(err))
	}
}

func toAttempt(runID, queryID, providerID string, attemptNumber int, outcome Outcome) model.RankingAttempt {
	a := model.RankingAttempt{
		RunID:          runID,
		QueryID:        queryID,
		ProviderID:     providerID,
		AttemptNumber:  attemptNumber,
		ParsedRanking:  outcome.RankedNames,
		TargetRank:     outcome.TargetRank,
		Success:        outcome.Success,
		ResponseTimeMs: outcome.ResponseTimeMs,
	}
	if a.ParsedRanking == nil {
		a.ParsedRanking = []string{}
	}
	if outcome.Err != nil {
		a.ErrorMessage = outcome.Err.Error()
	}
	return a
}

func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
