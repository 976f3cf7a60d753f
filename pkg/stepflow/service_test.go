package stepflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrefs struct {
	disabled map[AuthMethod]bool
	explicit map[AuthMethod]bool
}

func (f *fakePrefs) MethodEnabled(ctx context.Context, userID string, method AuthMethod) (*bool, error) {
	if f.disabled[method] {
		v := false
		return &v, nil
	}
	if f.explicit[method] {
		v := true
		return &v, nil
	}
	return nil, nil
}

func paymentDefinitions() []StepDefinition {
	return []StepDefinition{
		{OperationName: "payment", RequestAuthMethod: MethodInit, RequestResult: ResultContinue,
			ResponseAuthMethod: MethodMobileToken, ResponsePriority: 1},
		{OperationName: "payment", RequestAuthMethod: MethodInit, RequestResult: ResultContinue,
			ResponseAuthMethod: MethodSMSKey, ResponsePriority: 2},
		{OperationName: "payment", RequestAuthMethod: MethodMobileToken, RequestResult: ResultFailed,
			ResponseAuthMethod: MethodSMSKey, ResponsePriority: 1},
	}
}

func newTestService(defs []StepDefinition, prefs PreferenceChecker) *Service {
	return NewService(NewInMemStepDefinitionRepository(defs), prefs)
}

func TestResolveFirstStepPicksLowestPriority(t *testing.T) {
	service := newTestService(paymentDefinitions(), nil)

	decision, err := service.ResolveNextStep(context.Background(), "payment", "", ResultContinue, "user1")
	require.NoError(t, err)
	assert.Equal(t, ResultContinue, decision.Result)
	assert.Equal(t, MethodMobileToken, decision.Method)
}

func TestResolvePriorityTieBrokenByDeclarationOrder(t *testing.T) {
	defs := []StepDefinition{
		{OperationName: "login", RequestAuthMethod: MethodInit, RequestResult: ResultContinue,
			ResponseAuthMethod: MethodSMSKey, ResponsePriority: 1},
		{OperationName: "login", RequestAuthMethod: MethodInit, RequestResult: ResultContinue,
			ResponseAuthMethod: MethodMobileToken, ResponsePriority: 1},
	}
	service := newTestService(defs, nil)

	for i := 0; i < 10; i++ {
		decision, err := service.ResolveNextStep(context.Background(), "login", "", ResultContinue, "user1")
		require.NoError(t, err)
		assert.Equal(t, MethodSMSKey, decision.Method)
	}
}

func TestResolveDoneWhenNoRuleAfterContinue(t *testing.T) {
	service := newTestService(paymentDefinitions(), nil)

	decision, err := service.ResolveNextStep(context.Background(), "payment", MethodSMSKey, ResultContinue, "user1")
	require.NoError(t, err)
	assert.Equal(t, ResultDone, decision.Result)
	assert.Empty(t, decision.Method)
}

func TestResolveFailedWhenNoRuleAfterFailure(t *testing.T) {
	service := newTestService(paymentDefinitions(), nil)

	decision, err := service.ResolveNextStep(context.Background(), "payment", MethodSMSKey, ResultFailed, "user1")
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, decision.Result)
	assert.Equal(t, ReasonNoMatchingRule, decision.Reason)
}

func TestResolveFailedWhenAllCandidatesDisabled(t *testing.T) {
	prefs := &fakePrefs{disabled: map[AuthMethod]bool{
		MethodMobileToken: true,
		MethodSMSKey:      true,
	}}
	service := newTestService(paymentDefinitions(), prefs)

	decision, err := service.ResolveNextStep(context.Background(), "payment", "", ResultContinue, "user1")
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, decision.Result)
	assert.Equal(t, ReasonNoEnabledMethod, decision.Reason)
}

func TestResolveSkipsDisabledCandidate(t *testing.T) {
	prefs := &fakePrefs{disabled: map[AuthMethod]bool{MethodMobileToken: true}}
	service := newTestService(paymentDefinitions(), prefs)

	decision, err := service.ResolveNextStep(context.Background(), "payment", "", ResultContinue, "user1")
	require.NoError(t, err)
	assert.Equal(t, ResultContinue, decision.Result)
	assert.Equal(t, MethodSMSKey, decision.Method)
}

func TestResolveNoExplicitPreferenceDefaultsToEnabled(t *testing.T) {
	service := newTestService(paymentDefinitions(), &fakePrefs{})

	decision, err := service.ResolveNextStep(context.Background(), "payment", "", ResultContinue, "user1")
	require.NoError(t, err)
	assert.Equal(t, MethodMobileToken, decision.Method)
}

func TestResolveFallbackAfterMethodFailure(t *testing.T) {
	service := newTestService(paymentDefinitions(), nil)

	decision, err := service.ResolveNextStep(context.Background(), "payment", MethodMobileToken, ResultFailed, "user1")
	require.NoError(t, err)
	assert.Equal(t, ResultContinue, decision.Result)
	assert.Equal(t, MethodSMSKey, decision.Method)
}

func TestResolveIsDeterministic(t *testing.T) {
	service := newTestService(paymentDefinitions(), &fakePrefs{})

	first, err := service.ResolveNextStep(context.Background(), "payment", "", ResultContinue, "user1")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		decision, err := service.ResolveNextStep(context.Background(), "payment", "", ResultContinue, "user1")
		require.NoError(t, err)
		assert.Equal(t, first, decision)
	}
}

func TestResolveRejectsInvalidResult(t *testing.T) {
	service := newTestService(paymentDefinitions(), nil)

	_, err := service.ResolveNextStep(context.Background(), "payment", "", ResultDone, "user1")
	assert.Error(t, err)
}

func TestDistinctOperationNames(t *testing.T) {
	defs := append(paymentDefinitions(), StepDefinition{
		OperationName: "login", RequestAuthMethod: MethodInit, RequestResult: ResultContinue,
		ResponseAuthMethod: MethodUsernamePassword, ResponsePriority: 1,
	})
	service := newTestService(defs, nil)

	names, err := service.OperationNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"payment", "login"}, names)
}

func TestUnknownOperationResolvesDone(t *testing.T) {
	// No rules at all for the operation: a successful step has nothing to
	// follow it, so the operation is complete.
	service := newTestService(paymentDefinitions(), nil)

	decision, err := service.ResolveNextStep(context.Background(), "unknown", "", ResultContinue, "user1")
	require.NoError(t, err)
	assert.Equal(t, ResultDone, decision.Result)
}
