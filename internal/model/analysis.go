package model

import "time"

// RunStatus represents the current state of an analysis run.
// Legal transitions: pending -> running -> completed, or running -> failed.
// A completed or failed run is terminal.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// AnalysisRun represents one full execution over all active queries x active
// providers for one business.
type AnalysisRun struct {
	ID                string     `json:"id"`
	BusinessID        string     `json:"business_id"`
	Status            RunStatus  `json:"status"`
	TotalQueries      int        `json:"total_queries"`
	CompletedQueries  int        `json:"completed_queries"`
	TotalLLMCalls     int        `json:"total_llm_calls"`
	CompletedLLMCalls int        `json:"completed_llm_calls"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// RunPatch carries a partial update for an analysis run. Nil fields are
// left untouched by the store.
type RunPatch struct {
	Status            *RunStatus
	CompletedQueries  *int
	CompletedLLMCalls *int
	TotalQueries      *int
	TotalLLMCalls     *int
	ErrorMessage      *string
	CompletedAt       *time.Time
}

// RankingAttempt is one (run, query, provider, attempt-number) outcome.
// Attempts are append-only; rows are inserted in bulk per query and never
// updated.
type RankingAttempt struct {
	ID             string     `json:"id"`
	RunID          string     `json:"run_id"`
	QueryID        string     `json:"query_id"`
	ProviderID     string     `json:"provider_id"`
	AttemptNumber  int        `json:"attempt_number"`
	ParsedRanking  []string   `json:"parsed_ranking"`
	TargetRank     *int       `json:"target_rank,omitempty"`
	Success        bool       `json:"success"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	ResponseTimeMs int64      `json:"response_time_ms"`
	CreatedAt      time.Time  `json:"created_at"`
}
