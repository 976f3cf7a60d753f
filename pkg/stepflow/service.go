package stepflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// PreferenceChecker exposes the per-user method preference needed to prune
// resolution candidates. A nil result means no explicit preference, which
// defaults to enabled.
type PreferenceChecker interface {
	MethodEnabled(ctx context.Context, userID string, method AuthMethod) (*bool, error)
}

type indexKey struct {
	operationName     string
	requestAuthMethod AuthMethod
	requestResult     AuthResult
}

// Service resolves the next authentication step for an operation. The step
// definition table is loaded once into an index keyed by
// (operationName, requestAuthMethod, requestResult); the table is read-heavy
// and changes only at deploy time. Resolution itself is a pure function of
// its inputs and the loaded configuration, so every call is replayable.
type Service struct {
	repo  StepDefinitionRepository
	prefs PreferenceChecker

	mu     sync.RWMutex
	index  map[indexKey][]StepDefinition
	loaded bool
}

// NewService creates a resolution service. prefs may be nil, in which case no
// preference pruning happens.
func NewService(repo StepDefinitionRepository, prefs PreferenceChecker) *Service {
	return &Service{
		repo:  repo,
		prefs: prefs,
	}
}

// Reload rebuilds the in-memory step definition index from the repository.
func (s *Service) Reload(ctx context.Context) error {
	names, err := s.repo.DistinctOperationNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list operation names: %w", err)
	}

	index := make(map[indexKey][]StepDefinition)
	total := 0
	for _, name := range names {
		defs, err := s.repo.FindByOperationName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load step definitions for operation %s: %w", name, err)
		}
		for _, def := range defs {
			key := indexKey{
				operationName:     def.OperationName,
				requestAuthMethod: def.RequestAuthMethod,
				requestResult:     def.RequestResult,
			}
			index[key] = append(index[key], def)
			total++
		}
	}

	s.mu.Lock()
	s.index = index
	s.loaded = true
	s.mu.Unlock()

	slog.Info("Step definitions loaded", "operations", len(names), "definitions", total)
	return nil
}

// OperationNames returns all configured operation names.
func (s *Service) OperationNames(ctx context.Context) ([]string, error) {
	return s.repo.DistinctOperationNames(ctx)
}

// ResolveNextStep computes the next authentication method for an operation
// given the method just executed and its result. lastAuthMethod may be empty
// only for the very first resolution of a fresh operation; it then selects
// rules triggered by the INIT sentinel. lastResult must be CONTINUE or FAILED.
func (s *Service) ResolveNextStep(ctx context.Context, operationName string, lastAuthMethod AuthMethod, lastResult AuthResult, userID string) (Decision, error) {
	if lastResult != ResultContinue && lastResult != ResultFailed {
		return Decision{}, fmt.Errorf("invalid step result: %s", lastResult)
	}
	if lastAuthMethod == "" {
		lastAuthMethod = MethodInit
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return Decision{}, err
	}

	candidates := s.candidates(operationName, lastAuthMethod, lastResult)
	if len(candidates) == 0 {
		if lastResult == ResultContinue {
			// No follow-up configured after a successful step: the chain is complete.
			return Decision{Result: ResultDone}, nil
		}
		return Decision{Result: ResultFailed, Reason: ReasonNoMatchingRule}, nil
	}

	for _, def := range candidates {
		enabled, err := s.methodEnabled(ctx, userID, def.ResponseAuthMethod)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to check method preference: %w", err)
		}
		if !enabled {
			slog.Debug("Auth method disabled by user preference", "userId", userID,
				"authMethod", def.ResponseAuthMethod, "operationName", operationName)
			continue
		}
		return Decision{Result: ResultContinue, Method: def.ResponseAuthMethod}, nil
	}

	// Candidates existed but every one was disabled by preference.
	return Decision{Result: ResultFailed, Reason: ReasonNoEnabledMethod}, nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Reload(ctx)
}

// candidates returns matching rows ordered by priority, ties broken by
// declaration order. The stable sort is what makes the tie-break
// deterministic; do not replace it with an unstable one.
func (s *Service) candidates(operationName string, lastAuthMethod AuthMethod, lastResult AuthResult) []StepDefinition {
	s.mu.RLock()
	rows := s.index[indexKey{
		operationName:     operationName,
		requestAuthMethod: lastAuthMethod,
		requestResult:     lastResult,
	}]
	s.mu.RUnlock()

	ordered := make([]StepDefinition, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ResponsePriority < ordered[j].ResponsePriority
	})
	return ordered
}

func (s *Service) methodEnabled(ctx context.Context, userID string, method AuthMethod) (bool, error) {
	if s.prefs == nil || userID == "" {
		return true, nil
	}
	if _, ok := PreferenceOrdinals[method]; !ok {
		// Methods without a preference slot cannot be disabled.
		return true, nil
	}
	enabled, err := s.prefs.MethodEnabled(ctx, userID, method)
	if err != nil {
		return false, err
	}
	if enabled == nil {
		return true, nil
	}
	return *enabled, nil
}
