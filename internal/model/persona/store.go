package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Store exposes the read-only persona configuration to services.
type Store interface {
	Definition() Definition
	Facts() Facts
}

// MemoryStore implements Store with in-memory documents loaded at startup.
type MemoryStore struct {
	definition Definition
	facts      Facts
}

// NewMemoryStore returns a MemoryStore holding the supplied documents.
func NewMemoryStore(definition Definition, facts Facts) *MemoryStore {
	copied := make(Facts, len(facts))
	for k, v := range facts {
		copied[k] = v
	}
	return &MemoryStore{definition: definition, facts: copied}
}

// LoadStore reads the persona and facts documents from disk. Both files must
// exist and parse; a broken document is a startup error, not a degraded mode.
func LoadStore(personaPath, factsPath string) (*MemoryStore, error) {
	definition, err := loadDefinition(personaPath)
	if err != nil {
		return nil, err
	}

	facts, err := loadFacts(factsPath)
	if err != nil {
		return nil, err
	}

	return NewMemoryStore(definition, facts), nil
}

// Definition returns the persona identity document.
func (s *MemoryStore) Definition() Definition {
	return s.definition
}

// Facts returns a copy of the grounded facts.
func (s *MemoryStore) Facts() Facts {
	copied := make(Facts, len(s.facts))
	for k, v := range s.facts {
		copied[k] = v
	}
	return copied
}

func loadDefinition(path string) (Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read persona file %s: %w", path, err)
	}

	var definition Definition
	if err := json.Unmarshal(raw, &definition); err != nil {
		return Definition{}, fmt.Errorf("parse persona file %s: %w", path, err)
	}

	if strings.TrimSpace(definition.Name) == "" {
		return Definition{}, fmt.Errorf("persona file %s: name is required", path)
	}

	return definition, nil
}

func loadFacts(path string) (Facts, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts file %s: %w", path, err)
	}

	var facts Facts
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil, fmt.Errorf("parse facts file %s: %w", path, err)
	}

	return facts, nil
}
