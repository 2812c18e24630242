package grist

import "fmt"

// TableData is the column-oriented wire form of a table: each column id
// maps to a slice of cell values, one per row, all slices parallel. Row
// i across all columns forms one record.
type TableData map[string][]interface{}

// Records converts the wire form into one record per row by zipping the
// column slices. The id column must be present; its length decides the
// row count.
func (td TableData) Records() ([]Record, error) {
	ids, ok := td["id"]
	if !ok {
		return nil, fmt.Errorf("%w: table data has no id column", ErrMalformedResponse)
	}

	records := make([]Record, len(ids))
	for i := range ids {
		rec := make(Record, len(td))
		for col, values := range td {
			if i < len(values) {
				rec[col] = values[i]
			}
		}
		records[i] = rec
	}
	return records, nil
}

// RecordsToTableData builds the wire form from records. The column set
// is the union over all records; a record lacking a column contributes
// nil at its row position.
func RecordsToTableData(records []Record) TableData {
	data := make(TableData)
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for col := range rec {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}

	for _, col := range cols {
		values := make([]interface{}, len(records))
		for i, rec := range records {
			if v, ok := rec[col]; ok {
				values[i] = v
			}
		}
		data[col] = values
	}
	return data
}

// tableDataFromResponse converts a decoded JSON response body into the
// wire form, dropping anything that is not a column array. A missing or
// non-array id column surfaces later as ErrMalformedResponse from
// Records.
func tableDataFromResponse(body map[string]interface{}) TableData {
	td := make(TableData, len(body))
	for col, v := range body {
		if values, ok := v.([]interface{}); ok {
			td[col] = values
		}
	}
	return td
}
