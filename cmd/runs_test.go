package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abcdef"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatRunsList(t *testing.T) {
	runs := []model.AnalysisRun{
		{
			ID: "aaaabbbbccccdddd", BusinessID: "11112222333344445555",
			Status:       model.RunStatusRunning,
			TotalQueries: 3, CompletedQueries: 1,
			TotalLLMCalls: 150, CompletedLLMCalls: 55,
			CreatedAt: time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "aaaabbbb")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "55/150")
	assert.Contains(t, out, "2026-08-30 06:00")
}

func TestFormatCompetitorResultsMarksTarget(t *testing.T) {
	results := []model.CompetitorResult{
		{QueryID: "q1", Name: "Luigi's", WeightedScore: 1.0, AverageRank: 1.0,
			BestRank: 1, WorstRank: 1, Appearances: 3, TotalAttempts: 3,
			Providers: []string{"openai"}},
		{QueryID: "q1", Name: "Acme Pizza", WeightedScore: 2.67, AverageRank: 2.67,
			BestRank: 2, WorstRank: 4, Appearances: 3, TotalAttempts: 3,
			Providers: []string{"openai"}, IsTarget: true},
	}

	var buf bytes.Buffer
	formatCompetitorResults(&buf, results)

	out := buf.String()
	assert.Contains(t, out, "Query q1")
	assert.Contains(t, out, "Acme Pizza *")
	assert.NotContains(t, out, "Luigi's *")
}
