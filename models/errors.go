package models

import "errors"

// Domain errors. Services return these for expected conditions so the
// handlers can map them to status codes deterministically instead of
// string-matching store errors.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrActionNotFound       = errors.New("action not found")
	ErrProgressNotFound     = errors.New("progress not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrBadgeNotFound        = errors.New("badge not found")

	ErrAlreadyJoined    = errors.New("challenge already joined")
	ErrChallengeExpired = errors.New("challenge expired")
	ErrDuplicateEntry   = errors.New("duplicate entry")

	ErrLinkCodeInvalid    = errors.New("link code invalid or expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// IsNotFound reports whether err is one of the not-found variants.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrChallengeNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrActionNotFound) ||
		errors.Is(err, ErrProgressNotFound) ||
		errors.Is(err, ErrMembershipNotFound) ||
		errors.Is(err, ErrNotificationNotFound) ||
		errors.Is(err, ErrBadgeNotFound) ||
		errors.Is(err, ErrLinkCodeInvalid)
}
