package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/stepup-auth/pkg/mobiletoken"
	"github.com/tendant/stepup-auth/pkg/notification"
	"github.com/tendant/stepup-auth/pkg/smsotp"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// PhoneResolver maps a user to the phone number SMS codes go to. Contact
// data lives outside this core.
type PhoneResolver func(ctx context.Context, userID string) (string, error)

// SMSOTPStep runs the SMS_KEY authentication method: issue a code, deliver
// it out-of-band, verify what the user typed back.
type SMSOTPStep struct {
	otp           *smsotp.Service
	notifications *notification.Manager
	phones        PhoneResolver
}

// NewSMSOTPStep creates the SMS OTP step. notifications may be nil to skip
// delivery (the issued record stays valid and independently re-sendable).
func NewSMSOTPStep(otp *smsotp.Service, notifications *notification.Manager, phones PhoneResolver) *SMSOTPStep {
	return &SMSOTPStep{
		otp:           otp,
		notifications: notifications,
		phones:        phones,
	}
}

// Method returns the auth method this step implements.
func (s *SMSOTPStep) Method() stepflow.AuthMethod {
	return stepflow.MethodSMSKey
}

// Initiate issues a fresh authorization code for the operation and dispatches
// the SMS. Delivery is fire-and-forget: a failed send is logged and never
// rolls back the persisted record.
func (s *SMSOTPStep) Initiate(ctx context.Context, op *Operation, lang string) (*smsotp.SMSAuthorization, error) {
	if op.IsTerminal() {
		return nil, fmt.Errorf("%w: operation %s", ErrOperationTerminal, op.ID)
	}
	if op.PendingMethod != s.Method() {
		return nil, fmt.Errorf("%w: operation %s is waiting for %s, not %s",
			ErrUnexpectedMethod, op.ID, op.PendingMethod, s.Method())
	}

	auth, err := s.otp.Issue(ctx, op.UserID, op.ID, op.Name, op.FormData, lang)
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		go s.dispatch(auth)
	}
	return auth, nil
}

// Verify maps an OTP verification result onto a step outcome. The message
// must have been issued for the given operation; a code issued for one
// operation never authorizes another. A code mismatch leaves attempt budget
// on the table, so the step can be retried; an expired message or a spent
// budget exhausts the method.
func (s *SMSOTPStep) Verify(ctx context.Context, operationID, messageID, authorizationCode string) (StepOutcome, error) {
	auth, err := s.otp.Authorization(ctx, messageID)
	if err != nil {
		return "", err
	}
	if auth.OperationID != operationID {
		return "", fmt.Errorf("%w: message %s was not issued for operation %s",
			smsotp.ErrInvalidMessage, messageID, operationID)
	}

	err = s.otp.Verify(ctx, messageID, authorizationCode)
	switch {
	case err == nil:
		return StepSucceeded, nil
	case errors.Is(err, smsotp.ErrCodeMismatch), errors.Is(err, smsotp.ErrInvalidCode):
		return StepFailed, nil
	case errors.Is(err, smsotp.ErrExpired),
		errors.Is(err, smsotp.ErrMaxAttemptsExceeded),
		errors.Is(err, smsotp.ErrAlreadyVerified):
		return StepMethodExhausted, nil
	default:
		// Unknown message or storage failure: infrastructure, not an
		// authentication outcome.
		return "", err
	}
}

func (s *SMSOTPStep) dispatch(auth *smsotp.SMSAuthorization) {
	phone, err := s.phones(context.Background(), auth.UserID)
	if err != nil {
		slog.Warn("Failed to resolve phone number", "userId", auth.UserID, "error", err)
		return
	}
	err = s.notifications.Send(notification.ChannelSMS, notification.NotificationData{
		To:   phone,
		Body: auth.MessageText,
	})
	if err != nil {
		slog.Warn("Failed to send authorization sms", "messageId", auth.MessageID, "error", err)
	}
}

// MobileTokenStep runs the POWERAUTH_TOKEN method: the user confirms the
// operation in a mobile app that proves possession with a passcode.
type MobileTokenStep struct {
	tokens *mobiletoken.Service
}

// NewMobileTokenStep creates the mobile token step.
func NewMobileTokenStep(tokens *mobiletoken.Service) *MobileTokenStep {
	return &MobileTokenStep{tokens: tokens}
}

// Method returns the auth method this step implements.
func (s *MobileTokenStep) Method() stepflow.AuthMethod {
	return stepflow.MethodMobileToken
}

// Verify checks the passcode sent by the mobile app.
func (s *MobileTokenStep) Verify(ctx context.Context, userID, passcode string) (StepOutcome, error) {
	valid, err := s.tokens.ValidatePasscode(ctx, userID, passcode)
	if err != nil {
		if errors.Is(err, mobiletoken.ErrNotEnrolled) {
			// Nothing to confirm with; the method cannot succeed.
			return StepMethodExhausted, nil
		}
		return "", fmt.Errorf("failed to validate mobile token: %w", err)
	}
	if !valid {
		return StepFailed, nil
	}
	return StepSucceeded, nil
}
