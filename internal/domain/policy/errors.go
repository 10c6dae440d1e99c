package policy

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidParameters   = errors.New("invalid policy parameters")
	ErrNoMatchingThreshold = errors.New("no matching threshold")
	ErrQuotaOverflow       = errors.New("quota overflow")
	ErrUnknownKind         = errors.New("unknown policy kind")
)

// ParamError names the parameter that failed validation.
type ParamError struct {
	Param  string
	Reason string
	Err    error // defaults to ErrInvalidParameters
}

func paramErr(param, format string, args ...any) *ParamError {
	return &ParamError{Param: param, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidParameters}
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Unwrap(), e.Param, e.Reason)
}

func (e *ParamError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidParameters
	}
	return e.Err
}

// RowError names the score a policy could not grade.
type RowError struct {
	Index int
	ID    string
	Score float64
	Err   error
}

func (e *RowError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("row %d (%s): score %g: %v", e.Index, e.ID, e.Score, e.Err)
	}
	return fmt.Sprintf("row %d: score %g: %v", e.Index, e.Score, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
