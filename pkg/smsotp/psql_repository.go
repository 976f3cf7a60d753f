package smsotp

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAuthorizationRepository stores records in the sms_authorizations
// table. The attempt counter is incremented with a single UPDATE ... RETURNING
// so concurrent verifications cannot race past the max-attempts check.
type PostgresAuthorizationRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAuthorizationRepository creates a Postgres-backed repository.
func NewPostgresAuthorizationRepository(db *pgxpool.Pool) *PostgresAuthorizationRepository {
	return &PostgresAuthorizationRepository{db: db}
}

// Create persists a new record.
func (r *PostgresAuthorizationRepository) Create(ctx context.Context, auth *SMSAuthorization) error {
	query := `
		INSERT INTO sms_authorizations (message_id, operation_id, user_id, operation_name,
			authorization_code, salt, message_text, verify_request_count,
			timestamp_created, timestamp_expires, timestamp_verified, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		auth.MessageID,
		auth.OperationID,
		auth.UserID,
		auth.OperationName,
		auth.AuthorizationCode,
		auth.Salt,
		auth.MessageText,
		auth.VerifyRequestCount,
		auth.TimestampCreated,
		auth.TimestampExpires,
		auth.TimestampVerified,
		auth.Verified,
	)
	return err
}

// GetByMessageID returns the record, or ErrInvalidMessage when absent.
func (r *PostgresAuthorizationRepository) GetByMessageID(ctx context.Context, messageID string) (*SMSAuthorization, error) {
	query := `
		SELECT message_id, operation_id, user_id, operation_name,
		       authorization_code, salt, message_text, verify_request_count,
		       timestamp_created, timestamp_expires, timestamp_verified, verified
		FROM sms_authorizations
		WHERE message_id = $1
	`

	var auth SMSAuthorization
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&auth.MessageID,
		&auth.OperationID,
		&auth.UserID,
		&auth.OperationName,
		&auth.AuthorizationCode,
		&auth.Salt,
		&auth.MessageText,
		&auth.VerifyRequestCount,
		&auth.TimestampCreated,
		&auth.TimestampExpires,
		&auth.TimestampVerified,
		&auth.Verified,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvalidMessage
		}
		return nil, err
	}

	return &auth, nil
}

// IncrementVerifyCount atomically increments the attempt counter.
func (r *PostgresAuthorizationRepository) IncrementVerifyCount(ctx context.Context, messageID string) (int, error) {
	query := `
		UPDATE sms_authorizations
		SET verify_request_count = verify_request_count + 1
		WHERE message_id = $1
		RETURNING verify_request_count
	`

	var count int
	err := r.db.QueryRow(ctx, query, messageID).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrInvalidMessage
		}
		return 0, err
	}
	return count, nil
}

// MarkVerified records successful verification.
func (r *PostgresAuthorizationRepository) MarkVerified(ctx context.Context, messageID string, verifiedAt time.Time) error {
	query := `
		UPDATE sms_authorizations
		SET verified = TRUE,
		    timestamp_verified = $2
		WHERE message_id = $1
	`

	_, err := r.db.Exec(ctx, query, messageID, verifiedAt)
	return err
}
