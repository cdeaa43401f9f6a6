package domain

import (
	"errors"
	"fmt"
)

// Validation failures, all detected before any store query runs.
var (
	// ErrInvalidFilterValue marks a malformed filter parameter (bad year,
	// month out of range, inverted date range, ...).
	ErrInvalidFilterValue = errors.New("invalid filter value")

	// ErrInvalidSortColumn marks a sort or group key with no resolver entry
	// at all (typo / unsupported key).
	ErrInvalidSortColumn = errors.New("invalid sort column")

	// ErrNotApplicableDimension marks a dimension that exists but has no
	// meaning for the requested table.
	ErrNotApplicableDimension = errors.New("dimension not applicable to table")

	// ErrNoResolverEntry marks a (table, dimension) pair absent from the
	// column resolver. Seeing it at runtime means CheckResolver was skipped.
	ErrNoResolverEntry = errors.New("no column resolver entry")

	// ErrNodeNotFound marks a subject code with no tree entry.
	ErrNodeNotFound = errors.New("subject node not found")

	// ErrInsufficientEntities marks a comparison with fewer than two
	// entities.
	ErrInsufficientEntities = errors.New("at least two entities are required")
)

func invalidFilterValuef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilterValue, fmt.Sprintf(format, args...))
}
