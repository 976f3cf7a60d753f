package mobiletoken

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotEnrolled is returned when a user has no mobile token secret.
var ErrNotEnrolled = errors.New("user is not enrolled for mobile token")

// SecretRepository stores per-user TOTP secrets.
type SecretRepository interface {
	GetSecret(ctx context.Context, userID string) (string, error)
	SaveSecret(ctx context.Context, userID, secret string) error
}

// InMemSecretRepository stores secrets in a mutex-guarded map.
type InMemSecretRepository struct {
	secrets map[string]string
	mu      sync.Mutex
}

// NewInMemSecretRepository creates an empty in-memory repository.
func NewInMemSecretRepository() *InMemSecretRepository {
	return &InMemSecretRepository{secrets: make(map[string]string)}
}

func (r *InMemSecretRepository) GetSecret(ctx context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	secret, exists := r.secrets[userID]
	if !exists {
		return "", ErrNotEnrolled
	}
	return secret, nil
}

func (r *InMemSecretRepository) SaveSecret(ctx context.Context, userID, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.secrets[userID] = secret
	return nil
}

// PostgresSecretRepository stores secrets in the mobile_token_secrets table.
type PostgresSecretRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSecretRepository creates a Postgres-backed repository.
func NewPostgresSecretRepository(db *pgxpool.Pool) *PostgresSecretRepository {
	return &PostgresSecretRepository{db: db}
}

func (r *PostgresSecretRepository) GetSecret(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT secret
		FROM mobile_token_secrets
		WHERE user_id = $1
	`

	var secret string
	err := r.db.QueryRow(ctx, query, userID).Scan(&secret)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrNotEnrolled
		}
		return "", err
	}
	return secret, nil
}

func (r *PostgresSecretRepository) SaveSecret(ctx context.Context, userID, secret string) error {
	query := `
		INSERT INTO mobile_token_secrets (user_id, secret)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET secret = EXCLUDED.secret
	`

	_, err := r.db.Exec(ctx, query, userID, secret)
	return err
}
