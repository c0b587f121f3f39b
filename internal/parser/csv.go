package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"tamriel-catalog/internal/ordered"
)

// CSVRow is one data row keyed by the header, in header order.
type CSVRow = *ordered.Map

// ParseCSVFile reads a header-row CSV file into rows. A missing file yields
// ErrSourceNotFound.
func ParseCSVFile(filePath string) ([]CSVRow, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, filePath)
		}
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer file.Close()

	rows, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	return rows, nil
}

// extraValuesKey holds the values of a row that runs past the header.
const extraValuesKey = "null"

// ParseCSV reads rows from r. Short rows get null for the missing columns;
// values beyond the header are kept as a list under the key "null". A bare
// quote inside an unquoted field is kept as text.
func ParseCSV(r io.Reader) ([]CSVRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable column count
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []CSVRow{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	rows := []CSVRow{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := ordered.NewMap(len(header))
		for i, col := range header {
			if i < len(record) {
				row.Set(col, record[i])
			} else {
				row.Set(col, nil)
			}
		}
		if len(record) > len(header) {
			row.Set(extraValuesKey, record[len(header):])
		}
		rows = append(rows, row)
	}

	return rows, nil
}
