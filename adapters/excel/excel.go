package excel

import (
	"context"
	"fmt"
	"strconv"

	grist "github.com/tablesync/go-grist"
	"github.com/xuri/excelize/v2"
)

// Source reads records from an Excel worksheet. The first row names the
// columns; every following row becomes one record, with cell text
// coerced to numbers and booleans where it parses as one.
type Source struct {
	config Config
}

// New creates an Excel record source with the given configuration
func New(config Config) (*Source, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Source{config: config}, nil
}

// Load implements grist.RecordSource.
func (s *Source) Load(ctx context.Context) ([]grist.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := excelize.OpenFile(s.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := s.config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]grist.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue // Skip empty rows
		}

		rec := make(grist.Record, len(header))
		for j, value := range row {
			if j < len(header) && header[j] != "" {
				rec[header[j]] = parseCell(value)
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
