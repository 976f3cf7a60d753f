package operation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/stepup-auth/pkg/formdata"
	"github.com/tendant/stepup-auth/pkg/relay"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// Service drives operations through their authentication steps. Steps within
// one operation are strictly sequential: a per-operation lock serializes
// resolution so a step result is durably recorded before the next resolution
// runs. Operations are independent of each other and proceed in parallel.
type Service struct {
	repo     OperationRepository
	resolver *stepflow.Service
	relay    *relay.Service

	locks sync.Map // operation ID -> *sync.Mutex
}

// NewService creates an operation service. relayService may be nil when no
// push notification transport is wired.
func NewService(repo OperationRepository, resolver *stepflow.Service, relayService *relay.Service) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		relay:    relayService,
	}
}

// Create starts a new operation and resolves its first authentication step
// from the INIT sentinel.
func (s *Service) Create(ctx context.Context, operationName string, fd *formdata.FormData) (*Operation, error) {
	now := time.Now().UTC()
	op := &Operation{
		ID:               uuid.New().String(),
		Name:             operationName,
		FormData:         fd,
		Result:           stepflow.ResultContinue,
		History:          []StepRecord{},
		TimestampCreated: now,
		TimestampLastUpdated: now,
	}

	decision, err := s.resolver.ResolveNextStep(ctx, operationName, "", stepflow.ResultContinue, "")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve first step: %w", err)
	}
	s.applyDecision(op, decision)

	if err := s.repo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to store operation: %w", err)
	}

	slog.Info("Operation created", "operationId", op.ID, "operationName", operationName,
		"pendingMethod", op.PendingMethod, "result", op.Result)
	return op, nil
}

// Get returns the operation by ID.
func (s *Service) Get(ctx context.Context, operationID string) (*Operation, error) {
	return s.repo.Get(ctx, operationID)
}

// AssignUser records the authenticated user on the operation. The user ID is
// unknown until an identification step has run.
func (s *Service) AssignUser(ctx context.Context, operationID, userID string) error {
	lock := s.lockFor(operationID)
	lock.Lock()
	defer lock.Unlock()

	op, err := s.repo.Get(ctx, operationID)
	if err != nil {
		return err
	}
	op.UserID = userID
	return s.repo.Update(ctx, op)
}

// RecordStepResult feeds the outcome of an executed step back into the
// operation and, when the outcome is final for the current method, resolves
// the next step. Terminal transitions notify the session relay and drop the
// operation's session binding.
func (s *Service) RecordStepResult(ctx context.Context, operationID string, method stepflow.AuthMethod, outcome StepOutcome) (*Operation, error) {
	lock := s.lockFor(operationID)
	lock.Lock()
	defer lock.Unlock()

	op, err := s.repo.Get(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op.IsTerminal() {
		return nil, ErrOperationTerminal
	}
	if op.PendingMethod != "" && op.PendingMethod != method {
		return nil, fmt.Errorf("%w: pending %s, got %s", ErrUnexpectedMethod, op.PendingMethod, method)
	}

	op.History = append(op.History, StepRecord{
		AuthMethod: method,
		Outcome:    outcome,
		Timestamp:  time.Now().UTC(),
	})

	switch outcome {
	case StepFailed:
		// Attempt budget remains; the operation stays on the same step.
	case StepSucceeded, StepMethodExhausted:
		lastResult := stepflow.ResultContinue
		if outcome == StepMethodExhausted {
			lastResult = stepflow.ResultFailed
		}
		decision, err := s.resolver.ResolveNextStep(ctx, op.Name, method, lastResult, op.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve next step: %w", err)
		}
		s.applyDecision(op, decision)
	default:
		return nil, fmt.Errorf("invalid step outcome: %s", outcome)
	}

	if err := s.repo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to store operation: %w", err)
	}

	if op.IsTerminal() {
		slog.Info("Operation finished", "operationId", op.ID, "result", op.Result,
			"failureReason", op.FailureReason)
		if s.relay != nil {
			s.relay.NotifyAuthorizationComplete(op.ID, op.Result)
			s.relay.UnregisterSession(op.ID)
		}
		s.locks.Delete(operationID)
	}

	return op, nil
}

func (s *Service) applyDecision(op *Operation, decision stepflow.Decision) {
	switch decision.Result {
	case stepflow.ResultContinue:
		op.Result = stepflow.ResultContinue
		op.PendingMethod = decision.Method
	case stepflow.ResultDone:
		op.Result = stepflow.ResultDone
		op.PendingMethod = ""
	case stepflow.ResultFailed:
		op.Result = stepflow.ResultFailed
		op.FailureReason = decision.Reason
		op.PendingMethod = ""
	}
}

func (s *Service) lockFor(operationID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(operationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
