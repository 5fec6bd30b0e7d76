package convert

import "errors"

// Sentinel errors returned by the conversion entry points. Callers match
// them with errors.Is; everything else coming out of this package wraps one
// of these or is a best-effort failure that was logged and swallowed.
var (
	// ErrInvalidArgument means the input cannot identify an event at all,
	// e.g. a bundle whose event row carries neither evid nor orid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means a requested entity class had no source rows, e.g.
	// origins were requested but the bundle holds none.
	ErrNotFound = errors.New("not found")

	// ErrNotImplemented marks conversion paths reserved in the schema but
	// not supported, such as the denormalized moment table.
	ErrNotImplemented = errors.New("not implemented")
)
