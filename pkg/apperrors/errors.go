// Package apperrors defines the error taxonomy for internmatch-engine.
// All core errors are sentinel values so callers can branch with errors.Is
// instead of string matching.
package apperrors

import "errors"

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the visibility policy rejected the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition indicates a status change the state machine
	// does not permit, including transitions out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState indicates the operation requires the target to be in
	// a specific state it is not in (e.g. progress entries require an
	// approved application).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrConflict indicates a uniqueness violation such as a duplicate
	// email or an unresolved application already existing for the pair.
	ErrConflict = errors.New("conflict")

	// ErrScoringUnavailable indicates the external scorer failed for an
	// item. Non-fatal: the aggregator drops the item from its results.
	ErrScoringUnavailable = errors.New("scoring unavailable")

	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidRating indicates a feedback rating outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidArgument indicates a missing or malformed input field.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated indicates a missing or unverifiable credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)
