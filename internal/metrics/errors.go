package metrics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRange reports a date selection that is not a start ≤ end pair.
	// Callers fall back to the unfiltered table and warn.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrEmptyDataset is returned by Aggregate when no posts remain.
	ErrEmptyDataset = errors.New("no posts to aggregate")
	// ErrMissingColumn matches any *MissingColumnError.
	ErrMissingColumn = errors.New("missing required column")
)

// MissingColumnError lists required columns absent from an upload.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumn, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }
