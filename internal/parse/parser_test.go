package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRanking_NumberedLines(t *testing.T) {
	text := "1. Alpha Pizza\n2) Beta Trattoria\n3. Gamma Kitchen"

	names := Ranking(text)
	assert.Equal(t, []string{"Alpha Pizza", "Beta Trattoria", "Gamma Kitchen"}, names)
}

func TestRanking_NonMatchingLinesDropped(t *testing.T) {
	text := "Here are the best options:\n1. Alpha\nNote: rankings vary\n2. Beta\n\n- bullet point\n3. Gamma"

	names := Ranking(text)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, names)
}

func TestRanking_OrderPreserved(t *testing.T) {
	text := "5. Fifth\n1. First\n3. Third"

	// The printed index is not re-sorted; line order wins.
	names := Ranking(text)
	assert.Equal(t, []string{"Fifth", "First", "Third"}, names)
}

func TestRanking_EmptyInput(t *testing.T) {
	assert.Empty(t, Ranking(""))
	assert.Empty(t, Ranking("no list here at all"))
}

func TestRanking_TrimsCapturedName(t *testing.T) {
	names := Ranking("1.    Padded Name   ")
	assert.Equal(t, []string{"Padded Name"}, names)
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Co", "acme"},
		{"The Acme Company", "acme"},
		{"ACME  Corp.", "acme"},
		{"Acme Ltd", "acme"},
		{"Acme LLC", "acme"},
		{"Acme Inc.", "acme"},
		{"Widgets", "widget"},
		{"  Spaced   Out  Name ", "spaced out name"},
		{"The The", "the"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeName(tc.in), "input %q", tc.in)
	}
}

func TestDedup_FirstOccurrenceWins(t *testing.T) {
	names := []string{"Alpha", "Beta", "alpha", "ALPHA Inc"}

	out := Dedup(names)
	assert.Equal(t, []string{"Alpha", "Beta"}, out)
}

func TestDedup_PrefersFormWithoutTheArticle(t *testing.T) {
	// Scenario: parser extracted these from raw text
	// "1. Acme Co\n2. Acme Co\nNote: see above\n3. The Acme Company".
	names := Ranking("1. Acme Co\n2. Acme Co\nNote: see above\n3. The Acme Company")
	assert.Equal(t, []string{"Acme Co", "Acme Co", "The Acme Company"}, names)

	out := Dedup(names)
	assert.Equal(t, []string{"Acme Co"}, out)
}

func TestDedup_ReplacesKeptTheFormInPlace(t *testing.T) {
	out := Dedup([]string{"The Acme Company", "Beta", "Acme Co"})
	assert.Equal(t, []string{"Acme Co", "Beta"}, out)
}

func TestDedup_Idempotent(t *testing.T) {
	names := []string{"The Acme Company", "Acme Co", "Beta Ltd", "beta", "Gamma"}

	once := Dedup(names)
	twice := Dedup(once)
	assert.Equal(t, once, twice)
}

func TestDedup_SkipsEmptyKeys(t *testing.T) {
	out := Dedup([]string{"   ", "Alpha"})
	assert.Equal(t, []string{"Alpha"}, out)
}
