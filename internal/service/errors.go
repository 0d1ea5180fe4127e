package service

import (
	"errors"
	"fmt"
	"time"
)

// Business-rule failures returned across the service boundary. Storage and
// connectivity faults are wrapped with %w instead and surface as generic
// internal errors at the API layer.
var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrChildNotFound      = errors.New("child not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrNoPinConfigured    = errors.New("no pin configured")
	ErrInvalidPin         = errors.New("invalid pin")
)

// AccountLockedError signals that PIN attempts are suspended. RetryAfter is
// the remaining cool-down so callers can hint when to retry.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.RetryAfter.Round(time.Second))
}

// Actor identifies the authenticated caller of an operation. It is passed
// explicitly; services never assume ambient session state.
type Actor struct {
	ID   int64
	Role string // security.RoleParent or security.RoleChild
}
