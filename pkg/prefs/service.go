package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// Service manages per-user authentication method preferences. It also
// implements stepflow.PreferenceChecker so the step engine can prune
// disabled methods during resolution.
type Service struct {
	repo PreferenceRepository
}

// NewService creates a preference service.
func NewService(repo PreferenceRepository) *Service {
	return &Service{repo: repo}
}

// GetPreference returns the user's preference record. When no record exists
// an empty record is returned: every method default-enabled.
func (s *Service) GetPreference(ctx context.Context, userID string) (UserPreference, error) {
	pref, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPreferenceNotFound) {
			return NewUserPreference(userID), nil
		}
		return UserPreference{}, fmt.Errorf("failed to get preference: %w", err)
	}
	return pref, nil
}

// SetMethodEnabled records an explicit enabled state for the method. enabled
// may be nil to clear the explicit preference back to default policy.
func (s *Service) SetMethodEnabled(ctx context.Context, userID string, method stepflow.AuthMethod, enabled *bool) error {
	if err := validateMethod(method); err != nil {
		return err
	}

	pref, err := s.GetPreference(ctx, userID)
	if err != nil {
		return err
	}
	mp := pref.Methods[method]
	mp.Enabled = enabled
	pref.Methods[method] = mp

	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	slog.Info("Auth method preference updated", "userId", userID, "authMethod", method)
	return nil
}

// SetMethodConfig records an opaque configuration blob for the method.
func (s *Service) SetMethodConfig(ctx context.Context, userID string, method stepflow.AuthMethod, config string) error {
	if err := validateMethod(method); err != nil {
		return err
	}

	pref, err := s.GetPreference(ctx, userID)
	if err != nil {
		return err
	}
	mp := pref.Methods[method]
	mp.Config = config
	pref.Methods[method] = mp

	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// MethodEnabled implements stepflow.PreferenceChecker. A nil result means no
// explicit preference is recorded for the method.
func (s *Service) MethodEnabled(ctx context.Context, userID string, method stepflow.AuthMethod) (*bool, error) {
	if err := validateMethod(method); err != nil {
		return nil, err
	}

	pref, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPreferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return pref.Methods[method].Enabled, nil
}

func validateMethod(method stepflow.AuthMethod) error {
	if _, ok := stepflow.PreferenceOrdinals[method]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}
	return nil
}
