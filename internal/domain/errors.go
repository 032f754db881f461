package domain

import "errors"

// Sentinel errors for the session layer. Callers wrap them with context and
// check them with errors.Is.
var (
	// ErrAuthentication is returned when a connection cannot be resolved to a
	// member identity. The connection must be rejected.
	ErrAuthentication = errors.New("authentication failed")

	// ErrIdentityResolution is returned when member identity or display name
	// lookup fails in the middle of an operation. The triggering event is
	// dropped.
	ErrIdentityResolution = errors.New("identity resolution failed")

	ErrMemberNotFound = errors.New("member not found")

	ErrNotConnected  = errors.New("session is not connected")
	ErrNotSubscribed = errors.New("session is not subscribed to topic")
	ErrSessionClosed = errors.New("session is closed")

	ErrInvalidTopic = errors.New("invalid topic")
	ErrEmptyMessage = errors.New("message is empty")
	ErrForbidden    = errors.New("operation not permitted")
)

// ErrAlreadyConnected is returned when Connect is called on a session that
// already holds an identity.
var ErrAlreadyConnected = errors.New("session is already connected")
