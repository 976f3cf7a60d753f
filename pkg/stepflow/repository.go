package stepflow

import (
	"context"
)

// StepDefinitionRepository provides read-only access to the step transition
// table. Implementations must return rows in a stable declaration order so
// priority ties resolve reproducibly.
type StepDefinitionRepository interface {
	// FindByOperationName returns all step definitions for the operation.
	FindByOperationName(ctx context.Context, operationName string) ([]StepDefinition, error)
	// DistinctOperationNames returns the names of all configured operations.
	DistinctOperationNames(ctx context.Context) ([]string, error)
}
