package store

import (
	"errors"
	"fmt"
)

// TableNotFoundError reports a load of a key that was never saved.
type TableNotFoundError struct {
	Key string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("no table saved under key %q", e.Key)
}

// IsTableNotFoundError reports whether err wraps a TableNotFoundError.
func IsTableNotFoundError(err error) bool {
	var e *TableNotFoundError
	return errors.As(err, &e)
}
