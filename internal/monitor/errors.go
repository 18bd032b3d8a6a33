package monitor

import "errors"

// Sentinel errors returned by monitor repositories.
var (
	// ErrNotFound indicates no monitor exists with the given id.
	ErrNotFound = errors.New("monitor not found")

	// ErrExists indicates a monitor with the given id already exists.
	ErrExists = errors.New("monitor already exists")
)
