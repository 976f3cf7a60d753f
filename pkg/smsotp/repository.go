package smsotp

import (
	"context"
	"time"
)

// SMSAuthorization is one OTP challenge bound to an operation. Records are
// never deleted by this subsystem; expiry is a logical state evaluated by
// timestamp comparison, and retention is an external concern.
type SMSAuthorization struct {
	MessageID          string     `json:"message_id"`
	OperationID        string     `json:"operation_id"`
	UserID             string     `json:"user_id"`
	OperationName      string     `json:"operation_name"`
	AuthorizationCode  string     `json:"authorization_code"`
	Salt               []byte     `json:"salt"`
	MessageText        string     `json:"message_text"`
	VerifyRequestCount int        `json:"verify_request_count"`
	TimestampCreated   time.Time  `json:"timestamp_created"`
	TimestampExpires   time.Time  `json:"timestamp_expires"`
	TimestampVerified  *time.Time `json:"timestamp_verified,omitempty"`
	Verified           bool       `json:"verified"`
}

// IsExpired reports whether the message expired at the given instant.
func (a *SMSAuthorization) IsExpired(now time.Time) bool {
	return now.After(a.TimestampExpires)
}

// AuthorizationRepository stores SMS authorization records keyed by message ID.
type AuthorizationRepository interface {
	// Create persists a new record.
	Create(ctx context.Context, auth *SMSAuthorization) error
	// GetByMessageID returns the record, or ErrInvalidMessage when absent.
	GetByMessageID(ctx context.Context, messageID string) (*SMSAuthorization, error)
	// IncrementVerifyCount atomically increments the verification attempt
	// counter and returns the incremented value. Concurrent increments for
	// the same message ID must not observe the same value.
	IncrementVerifyCount(ctx context.Context, messageID string) (int, error)
	// MarkVerified records successful verification.
	MarkVerified(ctx context.Context, messageID string, verifiedAt time.Time) error
}
