package stepflow

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStepDefinitionRepository reads step definitions from the
// step_definitions table. Rows are ordered by ID so declaration order is the
// insertion order at deploy time.
type PostgresStepDefinitionRepository struct {
	db *pgxpool.Pool
}

// NewPostgresStepDefinitionRepository creates a Postgres-backed repository.
func NewPostgresStepDefinitionRepository(db *pgxpool.Pool) *PostgresStepDefinitionRepository {
	return &PostgresStepDefinitionRepository{db: db}
}

// FindByOperationName returns definitions for the operation ordered by ID.
func (r *PostgresStepDefinitionRepository) FindByOperationName(ctx context.Context, operationName string) ([]StepDefinition, error) {
	query := `
		SELECT id, operation_name, request_auth_method, request_result,
		       response_auth_method, response_priority
		FROM step_definitions
		WHERE operation_name = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, operationName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []StepDefinition
	for rows.Next() {
		var def StepDefinition
		if err := rows.Scan(
			&def.ID,
			&def.OperationName,
			&def.RequestAuthMethod,
			&def.RequestResult,
			&def.ResponseAuthMethod,
			&def.ResponsePriority,
		); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// DistinctOperationNames returns all configured operation names.
func (r *PostgresStepDefinitionRepository) DistinctOperationNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT operation_name
		FROM step_definitions
		ORDER BY operation_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
