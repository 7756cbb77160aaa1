package services

import (
	"errors"
	"fmt"
)

var (
	ErrIssueNotFound        = errors.New("issue not found")
	ErrAlreadyAccepted      = errors.New("you have already accepted this issue")
	ErrNotAResponder        = errors.New("you are not a responder for this issue")
	ErrIssueResolved        = errors.New("issue is already resolved")
	ErrNotIssuer            = errors.New("only the issuer can resolve this issue")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidLocation      = errors.New("invalid location")
	ErrDescriptionTooLong   = errors.New("description is too long")
)

// StorageError means a media or voice upload failed and the submission was
// abandoned.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to store %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ClassificationError means the urgency classifier failed, timed out, or
// returned something that does not map to a severity.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("failed to classify issue: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// DeliveryError reports push failures. It is logged, never returned to API
// callers.
type DeliveryError struct {
	Failed int
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %d notification(s): %v", e.Failed, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
