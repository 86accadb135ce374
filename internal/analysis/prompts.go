// Package analysis drives ranking runs: it executes query x provider x
// attempt units, checkpoints progress, and aggregates the persisted
// attempts into competitor statistics.
package analysis

import (
	"fmt"
	"strings"
)

// rankingPrompt asks a model for a numbered list answering the query. The
// target name is injected verbatim so rankings can be matched back to it.
func rankingPrompt(queryText, targetName string, requestedCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are ranking businesses for the question: %q\n\n", queryText)
	fmt.Fprintf(&b, "List exactly the %d best matches, best first, as a numbered list.\n", requestedCount)
	fmt.Fprintf(&b, "If %q belongs among the true answers, include it spelled exactly as %q.\n", targetName, targetName)
	b.WriteString("Use official business names only. Reply with the numbered list and nothing else.")
	return b.String()
}
