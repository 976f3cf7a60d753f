package smsotp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/stepup-auth/pkg/formdata"
)

// smsTextKey is the message catalog key for the outbound SMS template.
const smsTextKey = "sms-otp.text"

// MessageSource resolves localized message templates with positional args.
type MessageSource interface {
	Resolve(key, locale string, args ...any) (string, error)
}

// Service issues and verifies SMS authorization codes. Issuing persists the
// record; actually dispatching the SMS is the caller's responsibility, so a
// failed send never rolls back an issued record.
type Service struct {
	repo    AuthorizationRepository
	catalog MessageSource
	config  Config
	now     func() time.Time
}

// NewService creates an SMS OTP service.
func NewService(repo AuthorizationRepository, catalog MessageSource, config Config) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		config:  config,
		now:     time.Now,
	}
}

// Issue generates an authorization code for the operation and persists a new
// SMS authorization record. The amount, currency and account fields are taken
// from the operation form data; the localized message text embeds them along
// with the code.
func (s *Service) Issue(ctx context.Context, userID, operationID, operationName string, fd *formdata.FormData, lang string) (*SMSAuthorization, error) {
	amountAttr := fd.Amount()
	if amountAttr == nil || amountAttr.Amount == nil {
		return nil, fmt.Errorf("operation %s has no amount attribute", operationID)
	}
	amount := amountAttr.Amount.String()
	currency := amountAttr.Currency
	account := accountFromFormData(fd)

	code, salt, err := GenerateAuthorizationCode([]string{amount, currency, account}, s.config.CodeDigits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate authorization code: %w", err)
	}

	messageText, err := s.catalog.Resolve(smsTextKey, lang, amount, currency, account, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sms text: %w", err)
	}

	now := s.now().UTC()
	auth := &SMSAuthorization{
		MessageID:          uuid.New().String(),
		OperationID:        operationID,
		UserID:             userID,
		OperationName:      operationName,
		AuthorizationCode:  code,
		Salt:               salt,
		MessageText:        messageText,
		VerifyRequestCount: 0,
		TimestampCreated:   now,
		TimestampExpires:   now.Add(time.Duration(s.config.ExpirationSeconds) * time.Second),
		Verified:           false,
	}

	if err := s.repo.Create(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to store sms authorization: %w", err)
	}

	slog.Info("SMS authorization issued", "messageId", auth.MessageID,
		"operationId", operationID, "operationName", operationName)
	return auth, nil
}

// Authorization returns the stored record for a message ID, or
// ErrInvalidMessage when absent. Callers use it to check which operation a
// message was issued for before spending verification attempts on it.
func (s *Service) Authorization(ctx context.Context, messageID string) (*SMSAuthorization, error) {
	return s.repo.GetByMessageID(ctx, messageID)
}

// Verify checks a submitted authorization code against the stored record.
//
// The attempt counter is incremented and persisted before any validation so
// that every attempt spends budget, including ones that fail for other
// reasons. That ordering defines the attacker-visible attempt budget; keep it.
func (s *Service) Verify(ctx context.Context, messageID, authorizationCode string) error {
	auth, err := s.repo.GetByMessageID(ctx, messageID)
	if err != nil {
		return err
	}

	verifyCount, err := s.repo.IncrementVerifyCount(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to increment verify count: %w", err)
	}

	if auth.AuthorizationCode == "" {
		return ErrInvalidCode
	}
	if auth.IsExpired(s.now().UTC()) {
		return ErrExpired
	}
	if auth.Verified {
		return ErrAlreadyVerified
	}
	if verifyCount > s.config.MaxVerifyTries {
		return ErrMaxAttemptsExceeded
	}
	if authorizationCode != auth.AuthorizationCode {
		return ErrCodeMismatch
	}

	if err := s.repo.MarkVerified(ctx, messageID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to mark sms authorization verified: %w", err)
	}

	slog.Info("SMS authorization verified", "messageId", messageID, "operationId", auth.OperationID)
	return nil
}

// accountFromFormData extracts the target account, preferring the account the
// user chose over a configured key-value attribute.
func accountFromFormData(fd *formdata.FormData) string {
	if chosen := fd.UserInput["chosenBankAccount"]; chosen != "" {
		return chosen
	}
	if attr := fd.AttributeByID("operation.account"); attr != nil {
		return attr.Value
	}
	return ""
}
