package smsotp

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemAuthorizationRepository stores authorization records in a
// mutex-guarded map. The single mutex makes increment-then-read atomic per
// message ID, which the verification flow relies on.
type InMemAuthorizationRepository struct {
	records map[string]*SMSAuthorization
	mu      sync.Mutex
}

// NewInMemAuthorizationRepository creates an empty in-memory repository.
func NewInMemAuthorizationRepository() *InMemAuthorizationRepository {
	return &InMemAuthorizationRepository{
		records: make(map[string]*SMSAuthorization),
	}
}

// Create persists a new record.
func (r *InMemAuthorizationRepository) Create(ctx context.Context, auth *SMSAuthorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[auth.MessageID]; exists {
		return fmt.Errorf("sms authorization already exists: %s", auth.MessageID)
	}
	stored := *auth
	r.records[auth.MessageID] = &stored
	return nil
}

// GetByMessageID returns a copy of the record.
func (r *InMemAuthorizationRepository) GetByMessageID(ctx context.Context, messageID string) (*SMSAuthorization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.records[messageID]
	if !exists {
		return nil, ErrInvalidMessage
	}
	auth := *stored
	return &auth, nil
}

// IncrementVerifyCount atomically increments the attempt counter.
func (r *InMemAuthorizationRepository) IncrementVerifyCount(ctx context.Context, messageID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.records[messageID]
	if !exists {
		return 0, ErrInvalidMessage
	}
	stored.VerifyRequestCount++
	return stored.VerifyRequestCount, nil
}

// MarkVerified records successful verification.
func (r *InMemAuthorizationRepository) MarkVerified(ctx context.Context, messageID string, verifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.records[messageID]
	if !exists {
		return ErrInvalidMessage
	}
	stored.Verified = true
	stored.TimestampVerified = &verifiedAt
	return nil
}
