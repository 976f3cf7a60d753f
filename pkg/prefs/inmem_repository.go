package prefs

import (
	"context"
	"sync"

	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// InMemPreferenceRepository stores preference records in a mutex-guarded map.
type InMemPreferenceRepository struct {
	prefs map[string]UserPreference
	mu    sync.Mutex
}

// NewInMemPreferenceRepository creates an empty in-memory repository.
func NewInMemPreferenceRepository() *InMemPreferenceRepository {
	return &InMemPreferenceRepository{
		prefs: make(map[string]UserPreference),
	}
}

// GetPreference returns the stored preference record for the user.
func (r *InMemPreferenceRepository) GetPreference(ctx context.Context, userID string) (UserPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pref, exists := r.prefs[userID]
	if !exists {
		return UserPreference{}, ErrPreferenceNotFound
	}
	return copyPreference(pref), nil
}

// SavePreference creates or replaces the record for pref.UserID.
func (r *InMemPreferenceRepository) SavePreference(ctx context.Context, pref UserPreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs[pref.UserID] = copyPreference(pref)
	return nil
}

// copyPreference keeps callers from sharing the internal method map.
func copyPreference(pref UserPreference) UserPreference {
	methods := make(map[stepflow.AuthMethod]MethodPreference, len(pref.Methods))
	for method, mp := range pref.Methods {
		if mp.Enabled != nil {
			v := *mp.Enabled
			mp.Enabled = &v
		}
		methods[method] = mp
	}
	pref.Methods = methods
	return pref
}
