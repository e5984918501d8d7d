package model

import "errors"

// Sentinel errors shared across loaders, the dataset registry and the API
// layer. Call sites wrap these with context via github.com/pkg/errors and
// handlers translate them with errors.Is.
var (
	// ErrFormatMismatch means a path does not belong to a loader's format.
	// Detection treats it as "try the next loader", not as a failure.
	ErrFormatMismatch = errors.New("format mismatch")

	// ErrParseFailure means a structurally matching source contains data
	// that cannot be interpreted. Loading aborts with no partial dataset.
	ErrParseFailure = errors.New("parse failure")

	// ErrAmbiguousIdentity means the local user could not be determined,
	// either because no resolver was supplied or the resolver declined.
	ErrAmbiguousIdentity = errors.New("cannot determine which user is myself")

	// ErrNotLoaded means a dataset key is not present in the registry.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrLockUnavailable means a dataset's guard was poisoned by an earlier
	// panic and the dataset must be unloaded and loaded again.
	ErrLockUnavailable = errors.New("dataset guard unavailable")

	// ErrNotFound means a referenced entity (chat, message) does not exist
	// in a loaded dataset.
	ErrNotFound = errors.New("not found")

	// ErrValidation means a request or a constructed entity violates an
	// invariant.
	ErrValidation = errors.New("validation error")
)
