package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSource matches any MissingSourceError via errors.Is
	ErrMissingSource = errors.New("missing source")
	// ErrMissingColumn is returned when a required column header is absent
	ErrMissingColumn = errors.New("missing required column")
)

// MissingSourceError reports that an expected file or table does not exist.
// It is fatal for the view that needs the source and is never retried.
type MissingSourceError struct {
	Source string
	Err    error
}

func (e *MissingSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing source %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("missing source %s", e.Source)
}

// Is lets errors.Is(err, ErrMissingSource) match
func (e *MissingSourceError) Is(target error) bool {
	return target == ErrMissingSource
}

func (e *MissingSourceError) Unwrap() error {
	return e.Err
}

// ParseWarning records a cell that could not be typed. The row is kept and
// the field is left null.
type ParseWarning struct {
	Row    int    `json:"row"` // 1-based data row, header excluded
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("row %d: cannot parse %s=%q", w.Row, w.Column, w.Value)
}

// CountByColumn summarizes warnings for logging
func CountByColumn(warnings []ParseWarning) map[string]int {
	counts := make(map[string]int)
	for _, w := range warnings {
		counts[w.Column]++
	}
	return counts
}
