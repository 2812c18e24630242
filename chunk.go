package grist

import (
	"fmt"
	"sort"
	"strings"
)

// splitBatch splits items into consecutive batches of at most size
// elements, preserving order. Empty input yields no batches.
func splitBatch[T any](items []T, size int) [][]T {
	var batches [][]T
	for len(items) > size {
		batches = append(batches, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		batches = append(batches, items)
	}
	return batches
}

// groupForUpdate partitions records by their exact set of present
// columns, id included, then splits each group into batches of at most
// size records. Groups are emitted in the order each distinct column
// set first appears in the input.
//
// Update calls must not mix column sets: the wire form is columnar and
// omitting a column is the only way to leave a field unmodified, so a
// mixed batch would null out columns on records that never mentioned
// them.
func groupForUpdate(records []Record, size int) ([][]Record, error) {
	groups := make(map[string][]Record)
	var order []string
	for _, rec := range records {
		if _, ok := rec.RowID(); !ok {
			return nil, fmt.Errorf("%w: update record must have a numeric id", ErrInvalidRecord)
		}
		sig := columnSignature(rec)
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], rec)
	}

	var batches [][]Record
	for _, sig := range order {
		batches = append(batches, splitBatch(groups[sig], size)...)
	}
	return batches, nil
}

// columnSignature identifies a record's column set, independent of the
// order columns were added.
func columnSignature(rec Record) string {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return strings.Join(cols, "\x00")
}
