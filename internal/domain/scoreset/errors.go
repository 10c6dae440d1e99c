package scoreset

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidScore  = errors.New("invalid score")
	ErrDuplicateRow  = errors.New("duplicate row")
	ErrInvalidPolicy = errors.New("invalid on_invalid_score policy")
)

// RowError names the offending row.
type RowError struct {
	Index  int
	ID     string
	Raw    string
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	who := fmt.Sprintf("row %d", e.Index)
	if e.ID != "" {
		who += fmt.Sprintf(" (%s)", e.ID)
	}
	return fmt.Sprintf("%s: %v: %s: %q", who, e.Err, e.Reason, e.Raw)
}

func (e *RowError) Unwrap() error { return e.Err }
