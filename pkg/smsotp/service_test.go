package smsotp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/stepup-auth/pkg/formdata"
)

type stubCatalog struct{}

func (stubCatalog) Resolve(key, locale string, args ...any) (string, error) {
	return fmt.Sprintf("%s %s %s %s %s", key, args[0], args[1], args[2], args[3]), nil
}

func paymentFormData() *formdata.FormData {
	fd := formdata.New()
	fd.AddAmount("operation.amount", formdata.MustParseAmount("100.00"), "operation.currency", "CZK")
	fd.AddKeyValue("operation.account", "CZ1234")
	return fd
}

func newTestService(config Config) (*Service, *InMemAuthorizationRepository) {
	repo := NewInMemAuthorizationRepository()
	return NewService(repo, stubCatalog{}, config), repo
}

func TestIssueCreatesRecord(t *testing.T) {
	service, _ := newTestService(DefaultConfig())

	auth, err := service.Issue(context.Background(), "user1", "op1", "payment", paymentFormData(), "en")
	require.NoError(t, err)

	assert.NotEmpty(t, auth.MessageID)
	assert.Equal(t, "op1", auth.OperationID)
	assert.Equal(t, "user1", auth.UserID)
	assert.Equal(t, "payment", auth.OperationName)
	assert.Len(t, auth.AuthorizationCode, DefaultConfig().CodeDigits)
	assert.Len(t, auth.Salt, saltLength)
	assert.Contains(t, auth.MessageText, auth.AuthorizationCode)
	assert.Contains(t, auth.MessageText, "100.00")
	assert.Contains(t, auth.MessageText, "CZ1234")
	assert.Equal(t, 0, auth.VerifyRequestCount)
	assert.False(t, auth.Verified)
	assert.Nil(t, auth.TimestampVerified)
	assert.Equal(t, auth.TimestampCreated.Add(300*time.Second), auth.TimestampExpires)
}

func TestIssueGeneratesFreshCodeAndSalt(t *testing.T) {
	service, _ := newTestService(DefaultConfig())
	ctx := context.Background()

	first, err := service.Issue(ctx, "user1", "op1", "payment", paymentFormData(), "en")
	require.NoError(t, err)
	second, err := service.Issue(ctx, "user1", "op1", "payment", paymentFormData(), "en")
	require.NoError(t, err)

	assert.NotEqual(t, first.MessageID, second.MessageID)
	// Same transaction fields, fresh salt: the code/salt pair must differ.
	assert.NotEqual(t, first.Salt, second.Salt)
}

func TestIssueRequiresAmount(t *testing.T) {
	service, _ := newTestService(DefaultConfig())

	_, err := service.Issue(context.Background(), "user1", "op1", "payment", formdata.New(), "en")
	assert.Error(t, err)
}

func TestIssuePrefersChosenBankAccount(t *testing.T) {
	service, _ := newTestService(DefaultConfig())

	fd := paymentFormData()
	fd.AddUserInput("chosenBankAccount", "CZ9999")
	auth, err := service.Issue(context.Background(), "user1", "op1", "payment", fd, "en")
	require.NoError(t, err)
	assert.Contains(t, auth.MessageText, "CZ9999")
}

func TestVerifySucceedsExactlyOnce(t *testing.T) {
	service, repo := newTestService(DefaultConfig())
	ctx := context.Background()

	auth, err := service.Issue(ctx, "user1", "op1", "payment", paymentFormData(), "en")
	require.NoError(t, err)

	require.NoError(t, service.Verify(ctx, auth.MessageID, auth.AuthorizationCode))

	stored, err := repo.GetByMessageID(ctx, auth.MessageID)
	require.NoError(t, err)
	assert.True(t, stored.Verified)
	assert.NotNil(t, stored.TimestampVerified)
	assert.Equal(t, 1, stored.VerifyRequestCount)

	// The same correct code is rejected the second time.
	err = service.Verify(ctx, auth.MessageID, auth.AuthorizationCode)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyUnknownMessage(t *testing.T) {
	service, _ := newTestService(DefaultConfig())

	err := service.Verify(context.Background(), "no-such-message", "12345678")
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestVerifyCodeMismatchIncrementsCount(t *testing.T) {
	service, repo := newTestService(DefaultConfig())
	ctx := context.Background()

	auth, err := service.Issue(ctx, "user1", "op1", "payment", paymentFormData(), "en")
	require.NoError(t, err)

	err = service.Verify(ctx, auth.MessageID, "00000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	stored, err := repo.GetByMessageID(ctx, auth.MessageID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.VerifyRequestCount)
	assert.False(t, stored.Verified)
}

func TestVerifyMaxAttemptsExceededEvenWithCorrectCode(t *testing.T) {
	config := DefaultConfig()
	config.MaxVerifyTries = 2
	service, _ := newTestService(config)
	ctx := context.Background()

	auth, err := service.Issue(ctx, "user1", "op1", "payment", paymentFormData(), "en")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err = service.Verify(ctx, auth.MessageID, "00000000")
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}

	// Budget spent: the third attempt fails even though the code is right.
	err = service.Verify(ctx, auth.MessageID, auth.AuthorizationCode)
	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)
}

func TestVerifyExpiredStillIncrementsCount(t *testing.T) {
	service, repo := newTestService(DefaultConfig())
	ctx := context.Background()

	auth, err := service.Issue(ctx, "user1", "op1", "payment", paymentFormData(), "en")
	require.NoError(t, err)

	service.now = func() time.Time {
		return auth.TimestampExpires.Add(time.Second)
	}

	err = service.Verify(ctx, auth.MessageID, auth.AuthorizationCode)
	assert.ErrorIs(t, err, ErrExpired)

	stored, err := repo.GetByMessageID(ctx, auth.MessageID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.VerifyRequestCount)
}

func TestGenerateAuthorizationCode(t *testing.T) {
	code, salt, err := GenerateAuthorizationCode([]string{"100.00", "CZK", "CZ1234"}, 8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Len(t, salt, saltLength)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}

	_, _, err = GenerateAuthorizationCode([]string{"100.00"}, 0)
	assert.Error(t, err)
	_, _, err = GenerateAuthorizationCode([]string{"100.00"}, 19)
	assert.Error(t, err)
}
