package service

import (
	"errors"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
)

// validationErrs are caused by the caller's input or parameters rather than
// by the service.
var validationErrs = []error{ //nolint:gochecknoglobals // fixed classification table
	policy.ErrInvalidParameters,
	policy.ErrNoMatchingThreshold,
	policy.ErrQuotaOverflow,
	policy.ErrUnknownKind,
	scoreset.ErrInvalidScore,
	scoreset.ErrDuplicateRow,
	scoreset.ErrInvalidPolicy,
	stats.ErrEmptyInput,
	grade.ErrUnknownGrade,
}

// IsValidation reports whether err was caused by bad input or parameters.
func IsValidation(err error) bool {
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
