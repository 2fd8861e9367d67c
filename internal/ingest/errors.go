package ingest

import (
	"errors"
	"fmt"
)

// MalformedInputError reports a source file that cannot satisfy the
// declared schema: a required column is absent, or the file itself is
// unreadable as a table. It aborts ingestion.
type MalformedInputError struct {
	Path   string
	Column string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("malformed input %s: required column %q not found", e.Path, e.Column)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
}

// IsMalformedInputError reports whether err wraps a MalformedInputError.
func IsMalformedInputError(err error) bool {
	var e *MalformedInputError
	return errors.As(err, &e)
}
