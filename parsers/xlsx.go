package parsers

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

// NewXlsxReader returns a reader for the first sheet of an Excel workbook.
// The first row is the header.
func NewXlsxReader() *xlsxReader {
	return &xlsxReader{}
}

func (r *xlsxReader) Read(input io.Reader) ([]Record, error) {
	xlFile, err := excelize.OpenReader(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer xlFile.Close()

	sheetName := xlFile.GetSheetName(0)
	if sheetName == "" {
		sheetList := xlFile.GetSheetList()
		if len(sheetList) == 0 {
			return nil, errors.New("no sheets found in xlsx file")
		}
		sheetName = sheetList[0]
	}

	rows, err := xlFile.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, columns := range rows[1:] {
		if isBlank(columns) {
			continue
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
