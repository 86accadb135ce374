package analysis

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/store"
)

// Aggregator condenses a run's persisted attempts into per-query competitor
// statistics. Re-aggregation is idempotent: prior rows for each (run, query)
// are replaced wholesale.
type Aggregator struct {
	store store.Store
}

// NewAggregator wires an aggregator over the store.
func NewAggregator(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

type accumulator struct {
	name      string
	ranks     []int
	providers map[string]struct{}
	firstSeen int
}

// Aggregate recomputes competitor rows for every query in the run and
// returns the total number of rows written. A single query's insert failure
// is logged and does not block the remaining queries.
func (a *Aggregator) Aggregate(ctx context.Context, runID, targetName string) (int, error) {
	attempts, err := a.store.ListAttemptsForRun(ctx, runID)
	if err != nil {
		return 0, eris.Wrapf(err, "analysis: load attempts for run %s", runID)
	}

	byQuery := make(map[string][]model.RankingAttempt)
	var queryOrder []string
	for _, att := range attempts {
		if att.ParsedRanking == nil {
			continue
		}
		if _, seen := byQuery[att.QueryID]; !seen {
			queryOrder = append(queryOrder, att.QueryID)
		}
		byQuery[att.QueryID] = append(byQuery[att.QueryID], att)
	}

	logger := zap.L().With(zap.String("run_id", runID))
	total := 0
	for _, queryID := range queryOrder {
		results := aggregateQuery(runID, queryID, targetName, byQuery[queryID])
		if err := a.store.ReplaceCompetitorResults(ctx, runID, queryID, results); err != nil {
			logger.Error("competitor insert failed for query, continuing",
				zap.String("query_id", queryID),
				zap.Error(err))
			continue
		}
		total += len(results)
	}

	logger.Info("aggregation finished",
		zap.Int("queries", len(queryOrder)),
		zap.Int("rows", total))
	return total, nil
}

// aggregateQuery folds one query's attempts into competitor rows. Stored
// attempts always carry a non-nil ParsedRanking, empty on failure, so every
// persisted attempt counts in the appearance-rate denominator whether or not
// its provider call produced a list.
func aggregateQuery(runID, queryID, targetName string, attempts []model.RankingAttempt) []model.CompetitorResult {
	totalAttempts := len(attempts)
	byName := make(map[string]*accumulator)

	for _, att := range attempts {
		seenThisAttempt := make(map[string]struct{})
		for idx, raw := range att.ParsedRanking {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			acc, ok := byName[name]
			if !ok {
				acc = &accumulator{
					name:      name,
					providers: make(map[string]struct{}),
					firstSeen: len(byName),
				}
				byName[name] = acc
			}
			// count one rank per attempt per name; a list repeating a
			// name only keeps its first position
			if _, dup := seenThisAttempt[name]; dup {
				continue
			}
			seenThisAttempt[name] = struct{}{}
			acc.ranks = append(acc.ranks, idx+1)
			acc.providers[att.ProviderID] = struct{}{}
		}
	}

	accs := make([]*accumulator, 0, len(byName))
	for _, acc := range byName {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].firstSeen < accs[j].firstSeen })

	results := make([]model.CompetitorResult, 0, len(accs))
	for _, acc := range accs {
		appearances := len(acc.ranks)
		sum, best, worst := 0, acc.ranks[0], acc.ranks[0]
		for _, r := range acc.ranks {
			sum += r
			if r < best {
				best = r
			}
			if r > worst {
				worst = r
			}
		}
		avg := round2(float64(sum) / float64(appearances))

		rate := 0.0
		if totalAttempts > 0 {
			rate = float64(appearances) / float64(totalAttempts)
		}
		weighted := round2(avg * (2.0 - rate))

		providers := make([]string, 0, len(acc.providers))
		for p := range acc.providers {
			providers = append(providers, p)
		}
		sort.Strings(providers)

		results = append(results, model.CompetitorResult{
			RunID:         runID,
			QueryID:       queryID,
			Name:          acc.name,
			AverageRank:   avg,
			BestRank:      best,
			WorstRank:     worst,
			Appearances:   appearances,
			TotalAttempts: totalAttempts,
			WeightedScore: weighted,
			Providers:     providers,
			Ranks:         acc.ranks,
			IsTarget:      isTarget(acc.name, targetName),
		})
	}
	return results
}

// isTarget matches the candidate against the target name by substring in
// either direction, case-insensitive and trimmed.
func isTarget(name, targetName string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	t := strings.ToLower(strings.TrimSpace(targetName))
	if n == "" || t == "" {
		return false
	}
	return strings.Contains(n, t) || strings.Contains(t, n)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
