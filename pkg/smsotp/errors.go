package smsotp

import "errors"

var (
	// ErrInvalidMessage is returned when no authorization record exists for
	// the message ID. This is the only failure that does not increment the
	// verification attempt counter, because there is no record to count on.
	ErrInvalidMessage = errors.New("sms authorization message not found")

	// ErrInvalidCode is returned when the stored authorization code is empty.
	ErrInvalidCode = errors.New("sms authorization code is invalid")

	// ErrExpired is returned when the authorization message has expired.
	ErrExpired = errors.New("sms authorization message has expired")

	// ErrAlreadyVerified is returned when the message was verified before.
	ErrAlreadyVerified = errors.New("sms authorization message already verified")

	// ErrMaxAttemptsExceeded is returned when the verification attempt budget
	// is spent, regardless of code correctness.
	ErrMaxAttemptsExceeded = errors.New("sms authorization attempts exceeded")

	// ErrCodeMismatch is returned when the submitted code does not match.
	ErrCodeMismatch = errors.New("sms authorization code does not match")
)
