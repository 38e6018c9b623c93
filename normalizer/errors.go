package normalizer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumns is returned when a required field has no matching header
	ErrMissingColumns = errors.New("required columns missing")
	// ErrMissingValue is returned when a row has no case id or activity
	ErrMissingValue = errors.New("required value missing")
	// ErrInvalidTimestamp is returned when a row's timestamp cannot be parsed
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// SchemaValidationError aborts a whole normalization call. Row is -1 when
// the error concerns the header set rather than a single row.
type SchemaValidationError struct {
	Missing   []string
	Available []string
	Row       int
	Field     string
	Value     string
	Err       error
}

func (e *SchemaValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("schema validation failed: %v %s (available: %s)",
			e.Err, strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("schema validation failed at row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

func missingColumnsError(missing []string, available []string) *SchemaValidationError {
	return &SchemaValidationError{
		Missing:   missing,
		Available: available,
		Row:       -1,
		Err:       ErrMissingColumns,
	}
}

func rowError(row int, field string, value string, err error) *SchemaValidationError {
	return &SchemaValidationError{
		Row:   row,
		Field: field,
		Value: value,
		Err:   err,
	}
}
