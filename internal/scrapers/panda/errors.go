package panda

import (
	"context"
	"errors"
	"fmt"
)

// AuthenticationError means the portal rejected the credentials or the login did
// not take effect after a well-formed submission. It is never retried.
type AuthenticationError struct {
	Username string
	// Message is the portal's own explanation when one was shown.
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("panda: authentication failed for '%s': %s", e.Username, e.Message)
}

// SessionExpiredError is returned when a data request is answered with 403,
// the caller should force re-authentication before trying again.
type SessionExpiredError struct {
	Endpoint string
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("panda: session expired while requesting %s", e.Endpoint)
}

// ProtocolError means the portal answered with something that does not have the
// expected shape (missing login tokens, undecodable json).
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("panda: unexpected response: %s: %s", e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("panda: unexpected response: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// MappingError means a record lacked a field that is required to build the
// domain entity.
type MappingError struct {
	Entity string
	Id     string
	Field  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("panda: map %s '%s': required field '%s' is missing", e.Entity, e.Id, e.Field)
}

// TransientError covers every other network or http failure.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("panda: %s: %s", e.Op, e.Err.Error())
	}
	return fmt.Sprintf("panda: %s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// retryable reports whether a failed login attempt may be repeated with a fresh
// session.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var transient *TransientError
	return errors.As(err, &transient)
}
