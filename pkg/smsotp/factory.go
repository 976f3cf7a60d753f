package smsotp

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig contains configuration for creating an authorization repository.
type RepositoryConfig struct {
	// Pool is required for PostgreSQL repositories.
	Pool *pgxpool.Pool
}

// NewAuthorizationRepository creates a repository based on the persistence type.
func NewAuthorizationRepository(persistenceType string, config RepositoryConfig) (AuthorizationRepository, error) {
	switch persistenceType {
	case "postgres", "postgresql":
		if config.Pool == nil {
			return nil, fmt.Errorf("pool required for postgres repository")
		}
		return NewPostgresAuthorizationRepository(config.Pool), nil
	case "inmem", "memory":
		return NewInMemAuthorizationRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, inmem)", persistenceType)
	}
}
