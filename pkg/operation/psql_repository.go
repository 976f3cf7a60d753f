package operation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/stepup-auth/pkg/formdata"
)

// PostgresOperationRepository stores operations in the operations table.
// Form data and step history are stored as jsonb; both are opaque to every
// query the service runs.
type PostgresOperationRepository struct {
	db *pgxpool.Pool
}

// NewPostgresOperationRepository creates a Postgres-backed repository.
func NewPostgresOperationRepository(db *pgxpool.Pool) *PostgresOperationRepository {
	return &PostgresOperationRepository{db: db}
}

// Create persists a new operation.
func (r *PostgresOperationRepository) Create(ctx context.Context, op *Operation) error {
	formData, history, err := encodeJSONColumns(op)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO operations (operation_id, operation_name, user_id, form_data,
			result, failure_reason, pending_auth_method, step_history,
			timestamp_created, timestamp_last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.Exec(ctx, query,
		op.ID,
		op.Name,
		op.UserID,
		formData,
		op.Result,
		op.FailureReason,
		op.PendingMethod,
		history,
		op.TimestampCreated,
		op.TimestampLastUpdated,
	)
	return err
}

// Get returns the operation, or ErrOperationNotFound when absent.
func (r *PostgresOperationRepository) Get(ctx context.Context, id string) (*Operation, error) {
	query := `
		SELECT operation_id, operation_name, user_id, form_data,
		       result, failure_reason, pending_auth_method, step_history,
		       timestamp_created, timestamp_last_updated
		FROM operations
		WHERE operation_id = $1
	`

	var op Operation
	var formData, history []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&op.ID,
		&op.Name,
		&op.UserID,
		&formData,
		&op.Result,
		&op.FailureReason,
		&op.PendingMethod,
		&history,
		&op.TimestampCreated,
		&op.TimestampLastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOperationNotFound
		}
		return nil, err
	}

	if len(formData) > 0 {
		op.FormData = formdata.New()
		if err := json.Unmarshal(formData, op.FormData); err != nil {
			return nil, fmt.Errorf("failed to decode form data: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &op.History); err != nil {
			return nil, fmt.Errorf("failed to decode step history: %w", err)
		}
	}
	return &op, nil
}

// Update overwrites the stored operation state.
func (r *PostgresOperationRepository) Update(ctx context.Context, op *Operation) error {
	formData, history, err := encodeJSONColumns(op)
	if err != nil {
		return err
	}

	query := `
		UPDATE operations
		SET user_id = $2, form_data = $3, result = $4, failure_reason = $5,
		    pending_auth_method = $6, step_history = $7, timestamp_last_updated = now()
		WHERE operation_id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		op.ID,
		op.UserID,
		formData,
		op.Result,
		op.FailureReason,
		op.PendingMethod,
		history,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationNotFound
	}
	return nil
}

func encodeJSONColumns(op *Operation) ([]byte, []byte, error) {
	formData, err := json.Marshal(op.FormData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode form data: %w", err)
	}
	history, err := json.Marshal(op.History)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode step history: %w", err)
	}
	return formData, history, nil
}
