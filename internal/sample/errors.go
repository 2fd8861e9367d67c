package sample

import (
	"errors"
	"fmt"
)

// EmptyGroupError reports a core id that mapped to zero rows during
// aggregation. Unreachable when groups are built from the rows
// themselves; kept as a guard.
type EmptyGroupError struct {
	CoreID string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("core %q has no replicate rows", e.CoreID)
}

// IsEmptyGroupError reports whether err wraps an EmptyGroupError.
func IsEmptyGroupError(err error) bool {
	var e *EmptyGroupError
	return errors.As(err, &e)
}

// InconsistentReplicateError reports replicate rows of one core that
// disagree on a field that must be constant within the core (depth,
// density, site attributes). Raised only in strict mode.
type InconsistentReplicateError struct {
	CoreID string
	Column string
}

func (e *InconsistentReplicateError) Error() string {
	return fmt.Sprintf("core %q: replicates disagree on %q", e.CoreID, e.Column)
}

// IsInconsistentReplicateError reports whether err wraps an
// InconsistentReplicateError.
func IsInconsistentReplicateError(err error) bool {
	var e *InconsistentReplicateError
	return errors.As(err, &e)
}
