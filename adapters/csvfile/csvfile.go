package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	grist "github.com/tablesync/go-grist"
)

// Source reads records from a CSV file. The first line names the
// columns; every following line becomes one record.
type Source struct {
	path string
}

// New creates a CSV record source for the given file path
func New(path string) *Source {
	return &Source{path: path}
}

// Load implements grist.RecordSource.
func (s *Source) Load(ctx context.Context) ([]grist.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening csv %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var records []grist.Record
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		rec := make(grist.Record, len(header))
		for j, col := range header {
			if col != "" && j < len(row) {
				rec[col] = parseCell(row[j])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseCell coerces cell text to int64, float64 or bool when it parses
// as one, keeping the text otherwise.
func parseCell(value string) interface{} {
	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		if intVal := int64(floatVal); float64(intVal) == floatVal {
			return intVal
		}
		return floatVal
	}
	switch value {
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	}
	return value
}
