package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/stepup-auth/pkg/stepflow"
)

func boolPtr(v bool) *bool {
	return &v
}

func TestGetPreferenceDefaultsWhenAbsent(t *testing.T) {
	service := NewService(NewInMemPreferenceRepository())

	pref, err := service.GetPreference(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "user1", pref.UserID)
	assert.Empty(t, pref.Methods)

	enabled, err := service.MethodEnabled(context.Background(), "user1", stepflow.MethodSMSKey)
	require.NoError(t, err)
	assert.Nil(t, enabled)
}

func TestSetMethodEnabled(t *testing.T) {
	service := NewService(NewInMemPreferenceRepository())
	ctx := context.Background()

	err := service.SetMethodEnabled(ctx, "user1", stepflow.MethodSMSKey, boolPtr(false))
	require.NoError(t, err)

	enabled, err := service.MethodEnabled(ctx, "user1", stepflow.MethodSMSKey)
	require.NoError(t, err)
	require.NotNil(t, enabled)
	assert.False(t, *enabled)

	// Other methods stay at default.
	enabled, err = service.MethodEnabled(ctx, "user1", stepflow.MethodMobileToken)
	require.NoError(t, err)
	assert.Nil(t, enabled)
}

func TestSetMethodEnabledClearsToDefault(t *testing.T) {
	service := NewService(NewInMemPreferenceRepository())
	ctx := context.Background()

	require.NoError(t, service.SetMethodEnabled(ctx, "user1", stepflow.MethodMobileToken, boolPtr(true)))
	require.NoError(t, service.SetMethodEnabled(ctx, "user1", stepflow.MethodMobileToken, nil))

	enabled, err := service.MethodEnabled(ctx, "user1", stepflow.MethodMobileToken)
	require.NoError(t, err)
	assert.Nil(t, enabled)
}

func TestSetMethodConfig(t *testing.T) {
	service := NewService(NewInMemPreferenceRepository())
	ctx := context.Background()

	err := service.SetMethodConfig(ctx, "user1", stepflow.MethodMobileToken, `{"activationId":"abc"}`)
	require.NoError(t, err)

	pref, err := service.GetPreference(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, `{"activationId":"abc"}`, pref.Methods[stepflow.MethodMobileToken].Config)
	// Config writes never imply an enabled state.
	assert.Nil(t, pref.Methods[stepflow.MethodMobileToken].Enabled)
}

func TestInvalidMethodRejected(t *testing.T) {
	service := NewService(NewInMemPreferenceRepository())
	ctx := context.Background()

	err := service.SetMethodEnabled(ctx, "user1", stepflow.MethodInit, boolPtr(true))
	assert.ErrorIs(t, err, ErrInvalidMethod)

	err = service.SetMethodConfig(ctx, "user1", stepflow.AuthMethod("BOGUS"), "cfg")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestPreferencesIsolatedPerUser(t *testing.T) {
	service := NewService(NewInMemPreferenceRepository())
	ctx := context.Background()

	require.NoError(t, service.SetMethodEnabled(ctx, "user1", stepflow.MethodSMSKey, boolPtr(false)))

	enabled, err := service.MethodEnabled(ctx, "user2", stepflow.MethodSMSKey)
	require.NoError(t, err)
	assert.Nil(t, enabled)
}

func TestRepositoryCopySemantics(t *testing.T) {
	repo := NewInMemPreferenceRepository()
	ctx := context.Background()

	pref := NewUserPreference("user1")
	pref.Methods[stepflow.MethodSMSKey] = MethodPreference{Enabled: boolPtr(true)}
	require.NoError(t, repo.SavePreference(ctx, pref))

	// Mutating the caller's copy must not leak into the store.
	pref.Methods[stepflow.MethodSMSKey] = MethodPreference{Enabled: boolPtr(false)}

	stored, err := repo.GetPreference(ctx, "user1")
	require.NoError(t, err)
	require.NotNil(t, stored.Methods[stepflow.MethodSMSKey].Enabled)
	assert.True(t, *stored.Methods[stepflow.MethodSMSKey].Enabled)
}
