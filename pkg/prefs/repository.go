package prefs

import (
	"context"

	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// MethodPreference holds the per-method settings of one user. A nil Enabled
// means no explicit preference was recorded; default policy applies.
type MethodPreference struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Config  string `json:"config,omitempty"`
}

// UserPreference is the full preference record of one user, keyed by
// authentication method.
type UserPreference struct {
	UserID  string                                   `json:"user_id"`
	Methods map[stepflow.AuthMethod]MethodPreference `json:"methods"`
}

// NewUserPreference creates an empty preference record for the user.
func NewUserPreference(userID string) UserPreference {
	return UserPreference{
		UserID:  userID,
		Methods: make(map[stepflow.AuthMethod]MethodPreference),
	}
}

// PreferenceRepository stores user preference records keyed by user ID.
// Absence of a record means all methods are default-enabled; the step engine
// never creates records implicitly.
type PreferenceRepository interface {
	GetPreference(ctx context.Context, userID string) (UserPreference, error)
	SavePreference(ctx context.Context, pref UserPreference) error
}
