package fire

import (
	"errors"
	"fmt"
)

// UnparsablePlotIdError reports a fire-history plot label with no
// trailing numeric id.
type UnparsablePlotIdError struct {
	Label string
}

func (e *UnparsablePlotIdError) Error() string {
	return fmt.Sprintf("plot label %q has no trailing numeric id", e.Label)
}

// IsUnparsablePlotIdError reports whether err wraps an
// UnparsablePlotIdError.
func IsUnparsablePlotIdError(err error) bool {
	var e *UnparsablePlotIdError
	return errors.As(err, &e)
}
