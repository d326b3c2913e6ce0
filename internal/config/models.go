package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ModelConfig describes one benchmarkable model: which provider serves
// it, the upstream model name, the environment variable holding the
// credential, and default request parameters merged into every call.
type ModelConfig struct {
	ID            string         `yaml:"id"`
	Provider      string         `yaml:"provider"`
	Model         string         `yaml:"model"`
	APIKeyEnv     string         `yaml:"apiKeyEnv"`
	Description   string         `yaml:"description,omitempty"`
	DefaultParams map[string]any `yaml:"defaultParams,omitempty"`
}

// Available reports whether the model can be exercised: its credential
// is present in the environment, or mock mode is active.
func (m *ModelConfig) Available(useMocks bool) bool {
	if useMocks {
		return true
	}
	return os.Getenv(m.APIKeyEnv) != ""
}

// ModelCatalog is the parsed models.yaml: the closed set of model
// configurations plus named groups. It is loaded once at process start
// and passed by injection to whatever constructs adapters.
type ModelCatalog struct {
	Models      []ModelConfig       `yaml:"models"`
	ModelGroups map[string][]string `yaml:"model_groups"`

	index map[string]*ModelConfig
}

// LoadModelCatalog reads and validates a models.yaml file.
func LoadModelCatalog(path string) (*ModelCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog %s: %w", path, err)
	}
	return ParseModelCatalog(data)
}

// ParseModelCatalog parses model catalog YAML.
func ParseModelCatalog(data []byte) (*ModelCatalog, error) {
	var catalog ModelCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog: %w", err)
	}
	if err := catalog.validate(); err != nil {
		return nil, err
	}
	catalog.index = make(map[string]*ModelConfig, len(catalog.Models))
	for i := range catalog.Models {
		catalog.index[catalog.Models[i].ID] = &catalog.Models[i]
	}
	return &catalog, nil
}

func (c *ModelCatalog) validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("model catalog contains no models")
	}
	seen := make(map[string]struct{}, len(c.Models))
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("model catalog entry is missing an id")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate model id in catalog: %s", m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.Provider == "" {
			return fmt.Errorf("model %s is missing a provider tag", m.ID)
		}
		if m.Model == "" {
			return fmt.Errorf("model %s is missing an upstream model name", m.ID)
		}
		if m.APIKeyEnv == "" && m.Provider != "mock" {
			return fmt.Errorf("model %s is missing apiKeyEnv", m.ID)
		}
	}
	for group, ids := range c.ModelGroups {
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				return fmt.Errorf("model group %s references unknown model %s", group, id)
			}
		}
	}
	return nil
}

// Get returns the configuration for a model id.
func (c *ModelCatalog) Get(id string) (*ModelConfig, bool) {
	m, ok := c.index[id]
	return m, ok
}

// Group resolves a named model group to its configurations.
func (c *ModelCatalog) Group(name string) ([]*ModelConfig, error) {
	ids, ok := c.ModelGroups[name]
	if !ok {
		return nil, fmt.Errorf("unknown model group: %s", name)
	}
	models := make([]*ModelConfig, 0, len(ids))
	for _, id := range ids {
		if m, found := c.index[id]; found {
			models = append(models, m)
		}
	}
	return models, nil
}

// AvailableModels returns every model whose credential is present.
func (c *ModelCatalog) AvailableModels(useMocks bool) []*ModelConfig {
	var out []*ModelConfig
	for i := range c.Models {
		if c.Models[i].Available(useMocks) {
			out = append(out, &c.Models[i])
		}
	}
	return out
}

// AvailableByGroup returns the available models of a named group.
func (c *ModelCatalog) AvailableByGroup(name string, useMocks bool) ([]*ModelConfig, error) {
	models, err := c.Group(name)
	if err != nil {
		return nil, err
	}
	var out []*ModelConfig
	for _, m := range models {
		if m.Available(useMocks) {
			out = append(out, m)
		}
	}
	return out, nil
}

// AvailableGroups lists groups with at least one available model.
func (c *ModelCatalog) AvailableGroups(useMocks bool) []string {
	var out []string
	for name := range c.ModelGroups {
		models, err := c.AvailableByGroup(name, useMocks)
		if err == nil && len(models) > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
