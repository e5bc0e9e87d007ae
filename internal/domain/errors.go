// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness violation, e.g. a duplicate agent name.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates a composition rule was violated (missing agent
// reference, entry agent outside the member set, empty required field).
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition indicates a conversation status change that is not an
// edge of the lifecycle state machine.
var ErrInvalidTransition = errors.New("invalid status transition")
