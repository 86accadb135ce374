package model

// ProviderID identifies one of the supported LLM back-ends.
type ProviderID string

const (
	ProviderOpenAI     ProviderID = "openai"
	ProviderGemini     ProviderID = "gemini"
	ProviderAnthropic  ProviderID = "anthropic"
	ProviderPerplexity ProviderID = "perplexity"
	ProviderMistral    ProviderID = "mistral"
)

// KnownProviderIDs lists every supported back-end.
var KnownProviderIDs = []ProviderID{
	ProviderOpenAI,
	ProviderGemini,
	ProviderAnthropic,
	ProviderPerplexity,
	ProviderMistral,
}

// Valid reports whether the id names a supported back-end.
func (p ProviderID) Valid() bool {
	for _, known := range KnownProviderIDs {
		if p == known {
			return true
		}
	}
	return false
}

// Provider is read-only reference data describing one LLM back-end.
// The orchestrator only considers active providers.
type Provider struct {
	ID           string     `json:"id"`
	Canonical    ProviderID `json:"canonical"`
	Name         string     `json:"name"`
	DefaultModel string     `json:"default_model"`
	Active       bool       `json:"active"`
}
