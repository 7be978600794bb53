package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"sla-overage-report/internal/errs"
)

// ReadCSVFile reads a task export from path. A missing or unreadable file is an
// IngestionError; a missing required column is a SchemaError.
func ReadCSVFile(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, &errs.IngestionError{Source: path, Err: err}
	}
	defer file.Close()

	result, err := ReadCSV(file)
	if err != nil {
		var schemaErr *errs.SchemaError
		if errors.As(err, &schemaErr) {
			return Result{}, err
		}
		return Result{}, &errs.IngestionError{Source: path, Err: err}
	}
	return result, nil
}

// ReadCSV reads a task export with a header row.
func ReadCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("unable to read header: %w", err)
	}

	idx, err := resolveColumns(headers)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Result{}, fmt.Errorf("unable to read CSV: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		record, ok := idx.parseRecord(row)
		if !ok {
			result.InvalidRows++
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}
