// Package match scores textual similarity between business names.
package match

import "strings"

const (
	exactScore     = 1.0
	substringScore = 0.8
	// overlapFloor is the minimum word-overlap ratio that counts as a
	// match. Tunable heuristic; short names inflate the ratio.
	overlapFloor = 0.6
)

// Score rates the similarity of target and candidate in [0, 1]. Exact
// matches (ignoring case and surrounding/internal whitespace) score 1.0,
// substring containment scores 0.8, and anything else scores by word
// overlap, discarded below the 60% floor.
func Score(target, candidate string) float64 {
	t := fold(target)
	c := fold(candidate)
	if t == "" || c == "" {
		return 0
	}
	if t == c {
		return exactScore
	}
	if strings.Contains(t, c) || strings.Contains(c, t) {
		return substringScore
	}

	tWords := strings.Fields(t)
	cWords := strings.Fields(c)
	overlap := 0
	for _, tw := range tWords {
		for _, cw := range cWords {
			if strings.Contains(tw, cw) || strings.Contains(cw, tw) {
				overlap++
				break
			}
		}
	}

	denom := len(tWords)
	if len(cWords) > denom {
		denom = len(cWords)
	}
	ratio := float64(overlap) / float64(denom)
	if ratio < overlapFloor {
		return 0
	}
	return ratio
}

// Match is the best-scoring candidate for a target name.
type Match struct {
	Rank int    // 1-based position in the candidate list
	Name string // original candidate text
}

// FindBest evaluates every candidate and returns the strictly highest
// scorer (ties keep the first found). Returns nil when no candidate
// scores above zero.
func FindBest(target string, candidates []string) *Match {
	best := 0.0
	var found *Match

	for i, c := range candidates {
		s := Score(target, c)
		if s > best {
			best = s
			found = &Match{Rank: i + 1, Name: c}
		}
	}
	return found
}

func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
