package repository

import "errors"

// Sentinel kinds for run archive errors.
var (
	ErrNotFound      = errors.New("run not found")
	ErrInvalidLimit  = errors.New("invalid run list limit")
	ErrDuplicateRun  = errors.New("run already archived")
	ErrUnknownDriver = errors.New("unknown store driver")
)
