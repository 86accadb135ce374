// Package standardize canonicalizes free-text names through a secondary
// model pass, with a process-wide cache and graceful fallback.
package standardize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/parse"
)

// maxNames caps the list size; larger lists are returned unchanged.
const maxNames = 50

// Completer is the gateway operation the standardizer needs.
type Completer interface {
	Complete(ctx context.Context, id model.ProviderID, modelName, prompt string) (string, time.Duration, error)
}

// Cache maps normalized original names to their standardized form. A single
// instance is shared across every run in the process. Entries are idempotent
// so concurrent population is harmless, but the map itself needs a lock.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get looks up the standardized form of a name.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[parse.NormalizeName(name)]
	return v, ok
}

// Put stores the standardized form of a name.
func (c *Cache) Put(name, standardized string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[parse.NormalizeName(name)] = standardized
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Standardizer rewrites extracted name lists into canonical forms via a
// dedicated model call. Failure is never fatal: any problem returns the
// input unchanged.
type Standardizer struct {
	gateway  Completer
	cache    *Cache
	provider model.ProviderID
	model    string
}

// New builds a standardizer that calls the given provider and model.
func New(gateway Completer, cache *Cache, provider model.ProviderID, modelName string) *Standardizer {
	return &Standardizer{
		gateway:  gateway,
		cache:    cache,
		provider: provider,
		model:    modelName,
	}
}

// Standardize returns canonical forms for the given names. The target name
// is preserved verbatim when it appears in the list. Lists longer than
// maxNames are returned unchanged, as is anything the model call or its
// response cannot handle.
func (s *Standardizer) Standardize(ctx context.Context, targetName string, names []string) []string {
	if len(names) == 0 || len(names) > maxNames {
		return names
	}

	// Serve entirely from cache when every name has been seen before.
	cached := make([]string, len(names))
	allCached := true
	for i, name := range names {
		v, ok := s.cache.Get(name)
		if !ok {
			allCached = false
			break
		}
		cached[i] = v
	}
	if allCached {
		return cached
	}

	text, _, err := s.gateway.Complete(ctx, s.provider, s.model, buildPrompt(targetName, names))
	if err != nil {
		zap.L().Warn("standardization call failed, keeping original names",
			zap.String("provider", string(s.provider)),
			zap.Error(err))
		return names
	}

	standardized := parseResponse(text)
	if len(standardized) == 0 {
		zap.L().Warn("standardization response empty, keeping original names")
		return names
	}

	// Only a same-length response maps positionally back onto the input.
	// A shorter list means the model merged duplicates; use it as-is.
	if len(standardized) == len(names) {
		for i, name := range names {
			s.cache.Put(name, standardized[i])
		}
	}
	return standardized
}

func buildPrompt(targetName string, names []string) string {
	var b strings.Builder
	b.WriteString("Standardize the following business names to their official, canonical form. ")
	b.WriteString("Remove near-duplicate variants of the same business. ")
	fmt.Fprintf(&b, "If any entry refers to %q, keep it exactly as %q. ", targetName, targetName)
	b.WriteString("Reply with one name per line, numbered, in the same order, and nothing else.\n\n")
	for i, name := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return b.String()
}

// parseResponse accepts numbered or bare lines.
func parseResponse(text string) []string {
	if ranked := parse.Ranking(text); len(ranked) > 0 {
		return ranked
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
