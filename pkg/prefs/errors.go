package prefs

import "errors"

var (
	// ErrInvalidMethod is returned when a method has no preference slot.
	// This signals a caller bug, not a recoverable business condition.
	ErrInvalidMethod = errors.New("authentication method has no preference slot")

	// ErrPreferenceNotFound is returned by repositories when no preference
	// row exists for a user.
	ErrPreferenceNotFound = errors.New("user preference not found")
)
