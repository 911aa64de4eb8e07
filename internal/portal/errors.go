// Package portal is the client SDK for the test-drive booking portal.  It
// owns the three concerns the UI builds on: the identity gate (who is
// logged in, with what role), the cached catalog read path, and the
// booking submission flow with its WhatsApp handoff.  All remote failures
// are mapped onto the error taxonomy below before they leave this
// package; raw transport errors never reach presentation code.
package portal

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNetwork wraps transport and connectivity failures.  It is kept
	// distinct from credential and lookup failures so callers can offer
	// "retry" instead of "fix your input".
	ErrNetwork = errors.New("network error")

	// ErrInvalidCredentials is returned by login when the server rejects
	// the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned by catalog lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated is returned by operations that need an identity
	// when none is present.  For booking submission it doubles as the
	// signal that the flow parked the draft and is waiting for a login.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when an identity exists but its role does
	// not permit the operation.  Terminal: the caller must not retry.
	ErrForbidden = errors.New("forbidden")

	// ErrMissingSalesContact is returned by the WhatsApp handoff builder
	// when the car has no sales phone on record.  Reported to the user,
	// never silently swallowed.
	ErrMissingSalesContact = errors.New("sales contact missing")

	// ErrSubmitInFlight is returned when a draft is submitted while an
	// earlier submission of the same draft is still outstanding.
	ErrSubmitInFlight = errors.New("submission already in progress")
)

// RegistrationError carries the server's validation message verbatim
// (e.g. a duplicate email) so the form can show it as-is.
type RegistrationError struct {
	Message string
}

func (e *RegistrationError) Error() string {
	return "registration failed: " + e.Message
}

// BookingError reports a failed booking write.  The caller keeps the
// draft so the user can retry without re-entering anything.
type BookingError struct {
	Reason string
}

func (e *BookingError) Error() string {
	return "booking failed: " + e.Reason
}

// ValidationError maps field names to human-readable messages.  Produced
// only by Validate; a draft with a non-nil ValidationError never reaches
// the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d fields)", len(e.Fields))
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}
