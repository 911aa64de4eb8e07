// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the handler layer to
// distinguish failure scenarios without string matching: ErrCarNotFound
// maps to HTTP 404 on catalog lookups, ErrEmailExists to HTTP 409 on
// registration, and ErrForbidden to HTTP 403 when a sales user touches a
// record assigned to someone else.
package repository

import "errors"

// ErrCarNotFound is returned when a catalog lookup matches no car.
var ErrCarNotFound = errors.New("car not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned when an insert violates the unique email
// constraint on users.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")
