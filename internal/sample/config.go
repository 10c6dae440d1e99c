package sample

import (
	"errors"
	"fmt"
)

// Profile selects the score distribution.
type Profile string

const (
	// ProfileNormal draws every score from one normal distribution.
	ProfileNormal Profile = "normal"
	// ProfileMixed draws from a mixture of performer groups, which gives a
	// skewed, lumpy class.
	ProfileMixed Profile = "mixed"
)

// Defaults used by the CLI.
const (
	DefaultN      = 40
	DefaultMean   = 70
	DefaultStdDev = 12
	DefaultMin    = 0
	DefaultMax    = 100
)

// ErrInvalidOptions is returned when Options cannot produce a table.
var ErrInvalidOptions = errors.New("invalid sample options")

// Options describes the class to generate. Seed 0 picks a time-based seed.
type Options struct {
	N       int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	Seed    int64
	Profile Profile
}

// Record is one generated row.
type Record struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

func (o Options) validate() error {
	switch {
	case o.N < 0:
		return fmt.Errorf("%w: n must not be negative, got %d", ErrInvalidOptions, o.N)
	case o.StdDev < 0:
		return fmt.Errorf("%w: stddev must not be negative, got %g", ErrInvalidOptions, o.StdDev)
	case o.Min > o.Max:
		return fmt.Errorf("%w: min %g exceeds max %g", ErrInvalidOptions, o.Min, o.Max)
	}
	switch o.Profile {
	case "", ProfileNormal, ProfileMixed:
		return nil
	default:
		return fmt.Errorf("%w: unknown profile %q", ErrInvalidOptions, o.Profile)
	}
}
