package model

import "time"

// CompetitorResult is a derived per-(run, query, competitor-name) statistic.
// Rows are fully recomputed and replaced whenever aggregation runs; they are
// never incrementally patched.
type CompetitorResult struct {
	ID            string    `json:"id"`
	RunID         string    `json:"run_id"`
	QueryID       string    `json:"query_id"`
	Name          string    `json:"name"`
	AverageRank   float64   `json:"average_rank"`
	BestRank      int       `json:"best_rank"`
	WorstRank     int       `json:"worst_rank"`
	Appearances   int       `json:"appearances"`
	TotalAttempts int       `json:"total_attempts"`
	WeightedScore float64   `json:"weighted_score"`
	Providers     []string  `json:"providers"`
	Ranks         []int     `json:"ranks"`
	IsTarget      bool      `json:"is_target"`
	CreatedAt     time.Time `json:"created_at"`
}

// AppearanceRate returns the fraction of attempts that mentioned this
// competitor, in [0, 1]. Zero total attempts yields 0.
func (c CompetitorResult) AppearanceRate() float64 {
	if c.TotalAttempts == 0 {
		return 0
	}
	return float64(c.Appearances) / float64(c.TotalAttempts)
}
