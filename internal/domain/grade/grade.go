// Package grade defines the closed set of letter grades and their canonical
// best-to-worst order.
package grade

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGrade is returned when a label is not part of the enumeration.
var ErrUnknownGrade = errors.New("unknown grade")

// Grade is a letter grade label.
type Grade string

// Letter grades, best first.
const (
	APlus  Grade = "A+"
	A      Grade = "A"
	AMinus Grade = "A-"
	BPlus  Grade = "B+"
	B      Grade = "B"
	BMinus Grade = "B-"
	CPlus  Grade = "C+"
	C      Grade = "C"
	CMinus Grade = "C-"
	DPlus  Grade = "D+"
	D      Grade = "D"
	DMinus Grade = "D-"
	F      Grade = "F"

	// NotGraded marks rows that were excluded from grading. It is not part of
	// the canonical order and ranks after F.
	NotGraded Grade = "N/A"
)

var canonical = [...]Grade{APlus, A, AMinus, BPlus, B, BMinus, CPlus, C, CMinus, DPlus, D, DMinus, F}

var ranks = func() map[Grade]int {
	m := make(map[Grade]int, len(canonical))
	for i, g := range canonical {
		m[g] = i
	}
	return m
}()

// Canonical returns the grades in canonical order, best first.
func Canonical() []Grade {
	out := make([]Grade, len(canonical))
	copy(out, canonical[:])
	return out
}

// Parse converts a label into a Grade. Surrounding whitespace is ignored and
// letters are matched case-insensitively.
func Parse(s string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	if g == NotGraded {
		return NotGraded, nil
	}
	if _, ok := ranks[g]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownGrade, s)
	}
	return g, nil
}

// Valid reports whether g is one of the canonical grades. NotGraded is not valid.
func (g Grade) Valid() bool {
	_, ok := ranks[g]
	return ok
}

// Rank returns the position of g in canonical order (0 is best). NotGraded
// ranks directly after F; unknown labels return -1.
func (g Grade) Rank() int {
	if r, ok := ranks[g]; ok {
		return r
	}
	if g == NotGraded {
		return len(canonical)
	}
	return -1
}

func (g Grade) String() string { return string(g) }

// Less orders grades best first.
func Less(a, b Grade) bool {
	return a.Rank() < b.Rank()
}
