// Package parse extracts ordered name lists from raw LLM ranking output.
package parse

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// rankedLine matches "3. Name" or "3) Name" at the start of a line.
var rankedLine = regexp.MustCompile(`^(\d+)[.)]\s*(.+)$`)

// Ranking extracts the ordered sequence of names from raw numbered-list
// text. Lines that do not start with an integer followed by "." or ")" are
// dropped; relative order of matching lines is preserved.
func Ranking(text string) []string {
	var names []string
	dropped := 0

	for _, line := range strings.Split(text, "\n") {
		m := rankedLine.FindStringSubmatch(line)
		if m == nil {
			if strings.TrimSpace(line) != "" {
				dropped++
			}
			continue
		}
		name := strings.TrimSpace(m[2])
		if name == "" {
			continue
		}
		names = append(names, name)
	}

	if dropped > 0 {
		zap.L().Debug("parse: dropped non-ranked lines", zap.Int("dropped", dropped))
	}
	return names
}

// Dedup collapses near-identical entries, keeping the first occurrence of
// each normalized key in original order. When a later duplicate lacks a
// leading "The" article and the kept form has one, the later form replaces
// the kept text in place.
func Dedup(names []string) []string {
	seen := make(map[string]int, len(names))
	var out []string

	for _, name := range names {
		key := NormalizeName(name)
		if key == "" {
			continue
		}
		if idx, ok := seen[key]; ok {
			if hasTheArticle(out[idx]) && !hasTheArticle(name) {
				out[idx] = name
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, name)
	}
	return out
}

func hasTheArticle(name string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "the ")
}
