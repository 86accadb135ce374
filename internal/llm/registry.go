package llm

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
)

// RegistryEntry describes one provider in the providers.yaml file.
type RegistryEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	Active  bool   `yaml:"active"`
	KeyEnv  string `yaml:"key_env,omitempty"`
	Comment string `yaml:"comment,omitempty"`
}

// Registry is the parsed providers.yaml.
type Registry struct {
	Providers []RegistryEntry `yaml:"providers"`
}

// LoadRegistry reads the provider registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: read registry %s", path)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, eris.Wrapf(err, "llm: parse registry %s", path)
	}

	for _, e := range reg.Providers {
		if !model.ProviderID(e.ID).Valid() {
			return nil, eris.Errorf("llm: registry %s: unknown provider id %q", path, e.ID)
		}
	}
	return &reg, nil
}

// Models returns the configured providers as model rows, preserving file
// order and applying the built-in default model where the entry omits one.
func (r *Registry) Models() []model.Provider {
	out := make([]model.Provider, 0, len(r.Providers))
	for _, e := range r.Providers {
		id := model.ProviderID(e.ID)
		m := e.Model
		if m == "" {
			m = DefaultModel(id)
		}
		out = append(out, model.Provider{
			ID:           string(id),
			Canonical:    id,
			Name:         e.Name,
			DefaultModel: m,
			Active:       e.Active,
		})
	}
	return out
}

// DefaultModel returns the built-in default model name for a provider.
func DefaultModel(id model.ProviderID) string {
	switch id {
	case model.ProviderOpenAI:
		return "gpt-4o-mini"
	case model.ProviderGemini:
		return "gemini-2.0-flash"
	case model.ProviderAnthropic:
		return "claude-haiku-4-5-20251001"
	case model.ProviderPerplexity:
		return "sonar-pro"
	case model.ProviderMistral:
		return "mistral-small-latest"
	default:
		return ""
	}
}
