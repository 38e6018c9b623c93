package parsers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

type jsonReader struct{}

// NewJsonReader returns a reader for either a JSON array of objects or
// newline-delimited JSON objects. Nested objects and arrays are kept as their
// raw JSON text and numbers as json.Number.
func NewJsonReader() *jsonReader {
	return &jsonReader{}
}

func (r *jsonReader) Read(input io.Reader) ([]Record, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyInput
	}

	records := make([]Record, 0)
	if trimmed[0] == '[' {
		if !gjson.ValidBytes(trimmed) {
			return nil, errors.New("invalid JSON array")
		}
		var parseErr error
		gjson.ParseBytes(trimmed).ForEach(func(_, value gjson.Result) bool {
			record, err := toRecord(value)
			if err != nil {
				parseErr = fmt.Errorf("element %d: %w", len(records), err)
				return false
			}
			records = append(records, record)
			return true
		})
		return records, parseErr
	}

	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("line %d: invalid JSON", line)
		}
		record, err := toRecord(gjson.ParseBytes(raw))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func toRecord(obj gjson.Result) (Record, error) {
	if !obj.IsObject() {
		return nil, errors.New("expected a JSON object")
	}

	record := make(Record)
	obj.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.IsObject(), value.IsArray():
			record[key.String()] = value.Raw
		case value.Type == gjson.Number:
			// keep the literal, large integer ids do not survive float64
			record[key.String()] = json.Number(value.Raw)
		default:
			record[key.String()] = value.Value()
		}
		return true
	})
	return record, nil
}
