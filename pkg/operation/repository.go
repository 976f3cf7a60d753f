package operation

import (
	"context"
	"sync"
	"time"
)

// OperationRepository stores operations keyed by ID. How operations persist
// beyond process lifetime is an external concern; the core only needs
// read-your-writes within one flow.
type OperationRepository interface {
	Create(ctx context.Context, op *Operation) error
	Get(ctx context.Context, id string) (*Operation, error)
	Update(ctx context.Context, op *Operation) error
}

// InMemOperationRepository stores operations in a mutex-guarded map.
type InMemOperationRepository struct {
	operations map[string]*Operation
	mu         sync.Mutex
}

// NewInMemOperationRepository creates an empty in-memory repository.
func NewInMemOperationRepository() *InMemOperationRepository {
	return &InMemOperationRepository{
		operations: make(map[string]*Operation),
	}
}

func (r *InMemOperationRepository) Create(ctx context.Context, op *Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneOperation(op)
	r.operations[op.ID] = stored
	return nil
}

func (r *InMemOperationRepository) Get(ctx context.Context, id string) (*Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.operations[id]
	if !exists {
		return nil, ErrOperationNotFound
	}
	return cloneOperation(stored), nil
}

func (r *InMemOperationRepository) Update(ctx context.Context, op *Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.operations[op.ID]; !exists {
		return ErrOperationNotFound
	}
	op.TimestampLastUpdated = time.Now().UTC()
	r.operations[op.ID] = cloneOperation(op)
	return nil
}

func cloneOperation(op *Operation) *Operation {
	clone := *op
	clone.FormData = op.FormData.Clone()
	clone.History = make([]StepRecord, len(op.History))
	copy(clone.History, op.History)
	return &clone
}
