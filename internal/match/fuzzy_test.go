package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_ExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, Score("Acme Pizza", "acme pizza"))
	assert.Equal(t, 1.0, Score("  Acme   Pizza ", "Acme Pizza"))
}

func TestScore_Substring(t *testing.T) {
	assert.Equal(t, 0.8, Score("Acme", "Acme Pizza"))
	assert.Equal(t, 0.8, Score("Acme Pizza", "acme"))
}

func TestScore_Symmetric(t *testing.T) {
	// Exact and substring cases are symmetric.
	pairs := [][2]string{
		{"Acme Pizza", "ACME PIZZA"},
		{"Acme", "Acme Pizza Napoli"},
		{"Luigi's", "luigi's"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]), "pair %v", p)
	}
}

func TestScore_WordOverlap(t *testing.T) {
	// "pizzeria napoli roma" vs "napoli roma": 2 of 3 target words overlap,
	// ratio 2/3 >= 0.6.
	got := Score("pizzeria napoli roma", "trattoria napoli roma")
	assert.InDelta(t, 2.0/3.0, got, 1e-9)
}

func TestScore_OverlapBelowFloorDiscarded(t *testing.T) {
	// One of three words overlaps: ratio 1/3 < 0.6 -> 0.
	assert.Equal(t, 0.0, Score("alpha beta gamma", "alpha delta epsilon"))
}

func TestScore_NoOverlap(t *testing.T) {
	assert.Equal(t, 0.0, Score("alpha", "omega"))
	assert.Equal(t, 0.0, Score("", "anything"))
}

func TestFindBest_ReturnsHighestScorer(t *testing.T) {
	m := FindBest("Acme Pizza", []string{"Beta Bar", "acme pizza", "Acme"})
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Rank)
	assert.Equal(t, "acme pizza", m.Name)
}

func TestFindBest_TiesKeepFirst(t *testing.T) {
	// Both candidates contain the target: both score 0.8.
	m := FindBest("Acme", []string{"Acme Pizza", "Acme Bar"})
	require.NotNil(t, m)
	assert.Equal(t, 1, m.Rank)
	assert.Equal(t, "Acme Pizza", m.Name)
}

func TestFindBest_NotFound(t *testing.T) {
	assert.Nil(t, FindBest("Acme", []string{"Beta", "Gamma"}))
	assert.Nil(t, FindBest("Acme", nil))
}
