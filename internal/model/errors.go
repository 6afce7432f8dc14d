package model

import "errors"

var (
	// ErrInvalidSyncPayload marks an inbound request snapshot that lacks a user or a date.
	ErrInvalidSyncPayload = errors.New("invalid sync payload")
	// ErrNotFound is returned when a referenced planning entry does not exist.
	ErrNotFound = errors.New("planning entry not found")
	// ErrCollaboratorUnavailable marks a failed call to the identity or request-intake service.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrStorageFailure wraps every persistence error.
	ErrStorageFailure = errors.New("storage failure")
)

// ErrInvalidRange is returned when a date range starts after it ends.
var ErrInvalidRange = errors.New("start date is after end date")
