// Package mobiletoken implements the asynchronous mobile token confirmation
// method: the user confirms an operation in a mobile app that proves
// possession with a time-based passcode.
package mobiletoken

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/xlzd/gotp"
)

const (
	secretLength = 32
	// PERIOD is deliberately long for confirmation codes; the user is
	// reading the code off a second device, not an authenticator app.
	PERIOD = 300
	SKEW   = 1
)

// Service manages mobile token enrolment and passcode validation.
type Service struct {
	repo SecretRepository
}

// NewService creates a mobile token service.
func NewService(repo SecretRepository) *Service {
	return &Service{repo: repo}
}

// Enroll generates and stores a fresh TOTP secret for the user, replacing any
// previous one, and returns it for provisioning into the mobile app.
func (s *Service) Enroll(ctx context.Context, userID string) (string, error) {
	secret := gotp.RandomSecret(secretLength)
	if err := s.repo.SaveSecret(ctx, userID, secret); err != nil {
		return "", fmt.Errorf("failed to store mobile token secret: %w", err)
	}
	slog.Info("Mobile token enrolled", "userId", userID)
	return secret, nil
}

// GeneratePasscode derives the current passcode for the user.
func (s *Service) GeneratePasscode(ctx context.Context, userID string) (string, error) {
	secret, err := s.repo.GetSecret(ctx, userID)
	if err != nil {
		return "", err
	}

	code, err := totp.GenerateCodeCustom(secret, time.Now().UTC(), validateOpts())
	if err != nil {
		return "", fmt.Errorf("failed to generate mobile token passcode: %w", err)
	}
	return code, nil
}

// ValidatePasscode checks the passcode against the user's secret.
func (s *Service) ValidatePasscode(ctx context.Context, userID, passcode string) (bool, error) {
	secret, err := s.repo.GetSecret(ctx, userID)
	if err != nil {
		return false, err
	}

	valid, err := totp.ValidateCustom(passcode, secret, time.Now().UTC(), validateOpts())
	if err != nil {
		return false, fmt.Errorf("failed to validate mobile token passcode: %w", err)
	}
	return valid, nil
}

func validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    PERIOD,
		Skew:      SKEW,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
