package quiz

import (
	"fmt"
	"os"

	"quizbench/internal/domain"

	"gopkg.in/yaml.v3"
)

// Parse decodes a quiz definition from YAML and validates its
// structural invariants.
func Parse(data []byte) (*domain.QuizDefinition, error) {
	var def domain.QuizDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, domain.NewUnparseableError("failed to parse quiz YAML", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads and parses a quiz definition from disk. The raw bytes
// are returned as well so callers can persist the original document.
func LoadFile(path string) (*domain.QuizDefinition, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read quiz file %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return def, data, nil
}
