package table

import "errors"

// Sentinel kinds for input table errors.
var (
	ErrMissingColumn     = errors.New("missing score column")
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrEmptyTable        = errors.New("table has no header row")
)
