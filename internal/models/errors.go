package models

import (
	"errors"
	"fmt"
)

var (
	ErrUNIQUEConstraintFailed = errors.New("unique constraint failed")
	ErrFailedToAddUser        = errors.New("failed to add user")
	ErrInternal               = errors.New("internal server error")
	ErrMethodNotAllowed       = errors.New("method not allowed")
	ErrForbidden              = errors.New("access denied")
	ErrInvalidParams          = errors.New("invalid params")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserExists             = errors.New("user already exists")
	ErrDocumentNotFound       = errors.New("document not found")
	ErrGrantNotFound          = errors.New("grant not found")
	ErrSessionNotFound        = errors.New("sessions not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrNotOwner               = errors.New("requester is not the document owner")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrVersionConflict        = errors.New("document version conflict")
	ErrConcurrentModification = errors.New("document was modified concurrently, retry the operation")
	ErrDocumentArchived       = errors.New("document is archived")
)

type UniqueConstraintError struct {
	Constraint string
	Err        error
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Constraint)
}

func (e *UniqueConstraintError) Unwrap() error {
	return e.Err
}

// TransitionError reports a rejected per-organization transition together with
// the state it was attempted from.
type TransitionError struct {
	Current Status
	Event   string
	Target  Status
}

func (e *TransitionError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%v: %s -> %s (%s)", ErrInvalidTransition, e.Current, e.Target, e.Event)
	}
	return fmt.Sprintf("%v: %s on %s", ErrInvalidTransition, e.Event, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
