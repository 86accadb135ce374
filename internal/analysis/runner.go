package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/filippefrulli/ranklens-sub000/internal/match"
	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/parse"
)

// Completer is the provider gateway surface the runner depends on.
type Completer interface {
	Complete(ctx context.Context, id model.ProviderID, modelName, prompt string) (string, time.Duration, error)
}

// Standardizer canonicalizes extracted names. Implementations must treat
// failure as a no-op and return the input unchanged.
type Standardizer interface {
	Standardize(ctx context.Context, targetName string, names []string) []string
}

// Outcome is the structured result of one attempt. Failures are carried in
// Err; nothing escapes the runner as a panic or propagated error.
type Outcome struct {
	RankedNames    []string
	TargetRank     *int
	MatchedName    string
	Success        bool
	Err            error
	ResponseTimeMs int64
}

// Runner executes one (query, provider, attempt) unit of work.
type Runner struct {
	gateway      Completer
	standardizer Standardizer // nil disables standardization
}

// NewRunner builds an attempt runner. A nil standardizer skips the
// standardization pass.
func NewRunner(gateway Completer, standardizer Standardizer) *Runner {
	return &Runner{gateway: gateway, standardizer: standardizer}
}

// Run performs a single ranking attempt and always returns a structured
// outcome.
func (r *Runner) Run(ctx context.Context, provider model.Provider, query model.Query, targetName string, requestedCount int) Outcome {
	prompt := rankingPrompt(query.Text, targetName, requestedCount)

	text, elapsed, err := r.gateway.Complete(ctx, provider.Canonical, provider.DefaultModel, prompt)
	if err != nil {
		return Outcome{Err: err, ResponseTimeMs: elapsed.Milliseconds()}
	}

	names := parse.Dedup(parse.Ranking(text))
	if r.standardizer != nil {
		names = r.standardizer.Standardize(ctx, targetName, names)
	}

	outcome := Outcome{
		RankedNames:    names,
		Success:        true,
		ResponseTimeMs: elapsed.Milliseconds(),
	}
	if m := match.FindBest(targetName, names); m != nil {
		rank := m.Rank
		outcome.TargetRank = &rank
		outcome.MatchedName = m.Name
		outcome.RankedNames = truncate(names, rank)
	}

	zap.L().Debug("attempt finished",
		zap.String("provider", string(provider.Canonical)),
		zap.Int("names", len(outcome.RankedNames)),
		zap.Bool("target_found", outcome.TargetRank != nil),
		zap.Int64("elapsed_ms", outcome.ResponseTimeMs))
	return outcome
}

// truncate keeps the first ceil(rank/5)*5 entries, capped at the list
// length, so the target's neighborhood is always retained.
func truncate(names []string, rank int) []string {
	keep := ((rank + 4) / 5) * 5
	if keep > len(names) {
		keep = len(names)
	}
	return names[:keep]
}
