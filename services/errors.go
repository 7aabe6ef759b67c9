// Package services holds the stateful core of the application: the
// file-backed stores, the confirmation engine and the admin session table.
// File: services/errors.go
package services

import "errors"

// ErrConfigUnavailable is returned when a confirmation is attempted while no
// event configuration is loaded. This is a server-side condition, distinct
// from client validation failures.
var ErrConfigUnavailable = errors.New("configuración de asamblea no disponible")

// ErrInvalidCredentials is returned on a failed admin login or a
// change-password attempt with a wrong current password. It never reveals
// which field was wrong.
var ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// DuplicateError reports a uniqueness violation.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

// FormatError reports unreadable or malformed backing-store content. It is
// typically fatal to that store's load, which then degrades to empty.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string { return e.Message }

// PersistenceError reports a failed durable write. The in-memory mutation
// that preceded it is retained; operators reconcile memory against disk.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PersistenceError) Unwrap() error { return e.Err }
