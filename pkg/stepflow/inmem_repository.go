package stepflow

import (
	"context"
	"log/slog"
	"sync"
)

// InMemStepDefinitionRepository serves step definitions from memory, keeping
// the order in which they were added.
type InMemStepDefinitionRepository struct {
	definitions []StepDefinition
	mu          sync.RWMutex
}

// NewInMemStepDefinitionRepository creates an in-memory repository seeded with
// the given definitions.
func NewInMemStepDefinitionRepository(definitions []StepDefinition) *InMemStepDefinitionRepository {
	repo := &InMemStepDefinitionRepository{}
	for _, def := range definitions {
		repo.AddDefinition(def)
	}
	return repo
}

// AddDefinition appends a definition, assigning an ID if missing.
func (r *InMemStepDefinitionRepository) AddDefinition(def StepDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.ID == 0 {
		def.ID = int64(len(r.definitions) + 1)
	}
	r.definitions = append(r.definitions, def)
	slog.Debug("Step definition added", "operationName", def.OperationName,
		"requestAuthMethod", def.RequestAuthMethod, "responseAuthMethod", def.ResponseAuthMethod)
}

// FindByOperationName returns definitions for the operation in declaration order.
func (r *InMemStepDefinitionRepository) FindByOperationName(ctx context.Context, operationName string) ([]StepDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []StepDefinition
	for _, def := range r.definitions {
		if def.OperationName == operationName {
			defs = append(defs, def)
		}
	}
	return defs, nil
}

// DistinctOperationNames returns configured operation names in first-seen order.
func (r *InMemStepDefinitionRepository) DistinctOperationNames(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, def := range r.definitions {
		if !seen[def.OperationName] {
			seen[def.OperationName] = true
			names = append(names, def.OperationName)
		}
	}
	return names, nil
}
