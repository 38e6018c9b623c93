package parsers

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a source holds no data rows
	ErrEmptyInput = errors.New("input contains no records")
)

// IngestionError reports an unreadable or empty source. It is raised before
// normalization begins.
type IngestionError struct {
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to ingest %s: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
