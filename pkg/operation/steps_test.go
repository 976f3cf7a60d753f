package operation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/stepup-auth/pkg/mobiletoken"
	"github.com/tendant/stepup-auth/pkg/smsotp"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

type stubCatalog struct{}

func (stubCatalog) Resolve(key, locale string, args ...any) (string, error) {
	return fmt.Sprintf("%s: %v", key, args), nil
}

func smsOnlyChain() []stepflow.StepDefinition {
	return []stepflow.StepDefinition{
		{OperationName: "payment", RequestAuthMethod: stepflow.MethodInit, RequestResult: stepflow.ResultContinue,
			ResponseAuthMethod: stepflow.MethodSMSKey, ResponsePriority: 1},
	}
}

func TestSMSOTPStepSuccess(t *testing.T) {
	step := NewSMSOTPStep(smsotp.NewService(smsotp.NewInMemAuthorizationRepository(), stubCatalog{}, smsotp.DefaultConfig()), nil, nil)
	service := newOperationService(smsOnlyChain(), nil)
	ctx := context.Background()

	op, err := service.Create(ctx, "payment", paymentForm())
	require.NoError(t, err)
	require.Equal(t, step.Method(), op.PendingMethod)

	auth, err := step.Initiate(ctx, op, "en")
	require.NoError(t, err)

	outcome, err := step.Verify(ctx, op.ID, auth.MessageID, auth.AuthorizationCode)
	require.NoError(t, err)
	assert.Equal(t, StepSucceeded, outcome)

	op, err = service.RecordStepResult(ctx, op.ID, step.Method(), outcome)
	require.NoError(t, err)
	assert.Equal(t, stepflow.ResultDone, op.Result)
}

func TestSMSOTPStepRejectsMessageFromOtherOperation(t *testing.T) {
	step := NewSMSOTPStep(smsotp.NewService(smsotp.NewInMemAuthorizationRepository(), stubCatalog{}, smsotp.DefaultConfig()), nil, nil)
	service := newOperationService(smsOnlyChain(), nil)
	ctx := context.Background()

	small, err := service.Create(ctx, "payment", paymentForm())
	require.NoError(t, err)
	large, err := service.Create(ctx, "payment", paymentForm())
	require.NoError(t, err)

	auth, err := step.Initiate(ctx, small, "en")
	require.NoError(t, err)

	// A valid code issued for one operation must not authorize another.
	_, err = step.Verify(ctx, large.ID, auth.MessageID, auth.AuthorizationCode)
	require.ErrorIs(t, err, smsotp.ErrInvalidMessage)

	large, err = service.Get(ctx, large.ID)
	require.NoError(t, err)
	assert.Equal(t, stepflow.ResultContinue, large.Result)
	assert.False(t, large.IsTerminal())

	// The code still works for the operation it was issued for.
	outcome, err := step.Verify(ctx, small.ID, auth.MessageID, auth.AuthorizationCode)
	require.NoError(t, err)
	assert.Equal(t, StepSucceeded, outcome)
}

func TestSMSOTPStepInitiateGuards(t *testing.T) {
	step := NewSMSOTPStep(smsotp.NewService(smsotp.NewInMemAuthorizationRepository(), stubCatalog{}, smsotp.DefaultConfig()), nil, nil)
	service := newOperationService(smsOnlyChain(), nil)
	ctx := context.Background()

	op, err := service.Create(ctx, "payment", paymentForm())
	require.NoError(t, err)

	// An operation waiting for a different method gets no code.
	other := *op
	other.PendingMethod = stepflow.MethodMobileToken
	_, err = step.Initiate(ctx, &other, "en")
	assert.ErrorIs(t, err, ErrUnexpectedMethod)

	// A finished operation gets no code either.
	op, err = service.RecordStepResult(ctx, op.ID, step.Method(), StepSucceeded)
	require.NoError(t, err)
	require.True(t, op.IsTerminal())

	_, err = step.Initiate(ctx, op, "en")
	assert.ErrorIs(t, err, ErrOperationTerminal)
}

func TestSMSOTPStepExhaustsAfterMaxTries(t *testing.T) {
	config := smsotp.DefaultConfig()
	config.MaxVerifyTries = 2
	step := NewSMSOTPStep(smsotp.NewService(smsotp.NewInMemAuthorizationRepository(), stubCatalog{}, config), nil, nil)
	service := newOperationService(smsOnlyChain(), nil)
	ctx := context.Background()

	op, err := service.Create(ctx, "payment", paymentForm())
	require.NoError(t, err)

	auth, err := step.Initiate(ctx, op, "en")
	require.NoError(t, err)

	// Two mismatches spend the attempt budget but keep the step retryable.
	for i := 0; i < 2; i++ {
		outcome, err := step.Verify(ctx, op.ID, auth.MessageID, "bogus")
		require.NoError(t, err)
		assert.Equal(t, StepFailed, outcome)

		op, err = service.RecordStepResult(ctx, op.ID, step.Method(), outcome)
		require.NoError(t, err)
		assert.Equal(t, stepflow.ResultContinue, op.Result)
		assert.Equal(t, step.Method(), op.PendingMethod)
	}

	// The third attempt is over budget even with the correct code.
	outcome, err := step.Verify(ctx, op.ID, auth.MessageID, auth.AuthorizationCode)
	require.NoError(t, err)
	assert.Equal(t, StepMethodExhausted, outcome)

	op, err = service.RecordStepResult(ctx, op.ID, step.Method(), outcome)
	require.NoError(t, err)
	assert.Equal(t, stepflow.ResultFailed, op.Result)
	assert.Equal(t, stepflow.ReasonNoMatchingRule, op.FailureReason)
	assert.True(t, op.IsTerminal())
}

func TestSMSOTPStepUnknownMessage(t *testing.T) {
	step := NewSMSOTPStep(smsotp.NewService(smsotp.NewInMemAuthorizationRepository(), stubCatalog{}, smsotp.DefaultConfig()), nil, nil)

	_, err := step.Verify(context.Background(), "op1", "missing", "12345678")
	assert.ErrorIs(t, err, smsotp.ErrInvalidMessage)
}

func TestMobileTokenStep(t *testing.T) {
	tokens := mobiletoken.NewService(mobiletoken.NewInMemSecretRepository())
	step := NewMobileTokenStep(tokens)
	ctx := context.Background()

	// Without enrollment the method cannot succeed.
	outcome, err := step.Verify(ctx, "user1", "123456")
	require.NoError(t, err)
	assert.Equal(t, StepMethodExhausted, outcome)

	_, err = tokens.Enroll(ctx, "user1")
	require.NoError(t, err)

	passcode, err := tokens.GeneratePasscode(ctx, "user1")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == passcode {
		wrong = "000001"
	}
	outcome, err = step.Verify(ctx, "user1", wrong)
	require.NoError(t, err)
	assert.Equal(t, StepFailed, outcome)

	outcome, err = step.Verify(ctx, "user1", passcode)
	require.NoError(t, err)
	assert.Equal(t, StepSucceeded, outcome)
}
