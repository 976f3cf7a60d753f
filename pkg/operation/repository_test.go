package operation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/stepup-auth/pkg/formdata"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

func TestInMemRepositoryNotFound(t *testing.T) {
	repo := NewInMemOperationRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrOperationNotFound)

	err = repo.Update(ctx, &Operation{ID: "missing"})
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestInMemRepositoryIsolatesFormData(t *testing.T) {
	repo := NewInMemOperationRepository()
	ctx := context.Background()

	op := &Operation{
		ID:               uuid.New().String(),
		Name:             "payment",
		FormData:         paymentForm(),
		Result:           stepflow.ResultContinue,
		TimestampCreated: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, op))

	// Mutating form data on a fetched copy must not leak into the store.
	fetched, err := repo.Get(ctx, op.ID)
	require.NoError(t, err)
	*fetched.FormData.Amount().Amount = formdata.MustParseAmount("999999.00")
	fetched.FormData.AddUserInput("operation.account.choice", "CZ9999")

	stored, err := repo.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", stored.FormData.Amount().Amount.String())
	assert.Empty(t, stored.FormData.UserInput["operation.account.choice"])

	// Nor must mutations on the caller's original after Create.
	op.FormData.AddNote("note", "tampered")
	stored, err = repo.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FormData.Note())
}
