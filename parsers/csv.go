package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type csvReader struct {
	delimiter rune
}

// NewCsvReader returns a reader for delimited text with a header row. An
// empty delimiter means comma.
func NewCsvReader(delimiter string) *csvReader {
	d := ','
	if delimiter != "" {
		d, _ = utf8.DecodeRuneInString(delimiter)
	}
	return &csvReader{delimiter: d}
}

func (r *csvReader) Read(input io.Reader) ([]Record, error) {
	cr := csv.NewReader(input)
	cr.Comma = r.delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records := make([]Record, 0)
	line := 1
	for {
		columns, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(columns) {
			continue
		}
		if len(columns) > len(header) {
			return nil, fmt.Errorf("line %d has %d columns, header has %d", line, len(columns), len(header))
		}

		record := make(Record, len(header))
		for i, name := range header {
			if i < len(columns) {
				record[name] = columns[i]
			} else {
				record[name] = nil
			}
		}
		records = append(records, record)
	}

	return records, nil
}

func isBlank(columns []string) bool {
	for _, c := range columns {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
