package parse

import "strings"

// corporateSuffixes are trailing tokens stripped during normalization.
// Tunable heuristic, not a load-bearing invariant.
var corporateSuffixes = map[string]bool{
	"ltd":         true,
	"llc":         true,
	"inc":         true,
	"corp":        true,
	"co":          true,
	"company":     true,
	"corporation": true,
	"limited":     true,
}

// NormalizeName reduces a display name to its deduplication key: lowercase,
// trimmed, internal whitespace collapsed, leading "the " stripped, trailing
// corporate suffixes stripped, and a trailing plural "s" removed.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	if fields[0] == "the" && len(fields) > 1 {
		fields = fields[1:]
	}

	for len(fields) > 1 {
		last := strings.Trim(fields[len(fields)-1], ".,")
		if !corporateSuffixes[last] {
			break
		}
		fields = fields[:len(fields)-1]
	}

	s = strings.Join(fields, " ")
	s = strings.Trim(s, ".,")
	if len(s) > 3 && strings.HasSuffix(s, "s") {
		s = strings.TrimSuffix(s, "s")
	}
	return s
}
