package stepflow

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig contains configuration for creating a step definition repository.
type RepositoryConfig struct {
	// Pool is required for PostgreSQL repositories.
	Pool *pgxpool.Pool
	// Definitions seeds in-memory repositories.
	Definitions []StepDefinition
}

// NewStepDefinitionRepository creates a repository based on the persistence type.
func NewStepDefinitionRepository(persistenceType string, config RepositoryConfig) (StepDefinitionRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres repository")
		}
		return NewPostgresStepDefinitionRepository(config.Pool), nil
	case "inmem", "memory":
		return NewInMemStepDefinitionRepository(config.Definitions), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
