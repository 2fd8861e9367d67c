package site

import (
	"errors"
	"fmt"
	"strings"
)

// InconsistentSiteDataError reports plots whose sample rows carry more
// than one distinct set of site-level values. Fatal: the site table
// cannot be built until the source data is repaired.
type InconsistentSiteDataError struct {
	PlotIDs []int64
}

func (e *InconsistentSiteDataError) Error() string {
	ids := make([]string, len(e.PlotIDs))
	for i, id := range e.PlotIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("conflicting site-level values for plots %s", strings.Join(ids, ", "))
}

// IsInconsistentSiteDataError reports whether err wraps an
// InconsistentSiteDataError.
func IsInconsistentSiteDataError(err error) bool {
	var e *InconsistentSiteDataError
	return errors.As(err, &e)
}

// UnknownCategoryCodeError reports a treatment code outside the fixed
// harvest/fire-treatment lookups.
type UnknownCategoryCodeError struct {
	PlotID int64
	Field  string
	Code   string
}

func (e *UnknownCategoryCodeError) Error() string {
	return fmt.Sprintf("plot %d: unknown %s code %q", e.PlotID, e.Field, e.Code)
}

// IsUnknownCategoryCodeError reports whether err wraps an
// UnknownCategoryCodeError.
func IsUnknownCategoryCodeError(err error) bool {
	var e *UnknownCategoryCodeError
	return errors.As(err, &e)
}
