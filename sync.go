package grist

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// SyncOptions adjusts SyncTable.
type SyncOptions struct {
	// Filters restricts the sync to the rows matching the filter, both
	// on the remote side and among the supplied records. Every filtered
	// column must be one of the key columns.
	Filters Filter
}

// SyncResult counts what one SyncTable call did.
type SyncResult struct {
	Updated     int // rows matched by key with at least one changed column
	Added       int // records with no key match in the filtered view
	Unchanged   int // rows matched by key with nothing to change
	FilteredOut int // records skipped because they fail the filter
}

// SyncTable reconciles records against the table's current contents.
// Each record is matched to an existing row by the values of the key
// columns. A matched row receives a partial update of just the columns
// whose values differ; an unmatched record is inserted whole. Rows are
// never removed. All staged updates are applied before any insert; on
// failure, calls already issued stay applied.
func (c *Client) SyncTable(ctx context.Context, table string, records []Record, keyCols []string, opts *SyncOptions) (*SyncResult, error) {
	var filters Filter
	if opts != nil {
		filters = opts.Filters
	}
	for col := range filters {
		if !slices.Contains(keyCols, col) {
			return nil, fmt.Errorf("%w: filter column %q is not a key column", ErrFilterNotSubset, col)
		}
	}

	existing, err := c.FetchTable(ctx, table, filters)
	if err != nil {
		return nil, err
	}

	// Index the fetched rows by key tuple. A duplicate key tuple keeps
	// the last row fetched.
	index := make(map[string]Record, len(existing))
	for _, rec := range existing {
		key, err := keyTuple(rec, keyCols)
		if err != nil {
			return nil, err
		}
		index[key] = rec
	}

	var updates, inserts []Record
	result := &SyncResult{}
	for _, rec := range records {
		if filters != nil && !filters.Matches(rec) {
			result.FilteredOut++
			continue
		}

		key, err := keyTuple(rec, keyCols)
		if err != nil {
			return nil, err
		}

		old, ok := index[key]
		if !ok {
			inserts = append(inserts, rec)
			result.Added++
			continue
		}

		changed := diffRecord(rec, old)
		if changed == nil {
			result.Unchanged++
			continue
		}
		updates = append(updates, changed)
		result.Updated++
	}

	if err := c.UpdateRecords(ctx, table, updates); err != nil {
		return nil, err
	}
	if _, err := c.AddRecords(ctx, table, inserts); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"table":       table,
		"updated":     result.Updated,
		"added":       result.Added,
		"unchanged":   result.Unchanged,
		"filteredOut": result.FilteredOut,
	}).Debug("table synced")
	return result, nil
}

// keyTuple serializes the projection of a record onto the key columns.
// JSON keeps value types apart, so the number 1 and the string "1"
// produce distinct tuples. A missing key column projects to null.
func keyTuple(rec Record, keyCols []string) (string, error) {
	tuple := make([]interface{}, len(keyCols))
	for i, col := range keyCols {
		tuple[i] = rec[col]
	}
	raw, err := json.Marshal(tuple)
	if err != nil {
		return "", fmt.Errorf("serializing key tuple: %w", err)
	}
	return string(raw), nil
}

// diffRecord returns the update bringing old in line with rec: the
// columns of rec whose values differ from old's, plus old's row id.
// Returns nil when nothing differs. Compound values always count as
// changed. The caller-supplied id, if any, is ignored; the matched
// row's id wins.
func diffRecord(rec, old Record) Record {
	var changed Record
	for col, v := range rec {
		if col == "id" {
			continue
		}
		if sameCell(v, old[col]) {
			continue
		}
		if changed == nil {
			changed = make(Record)
		}
		changed[col] = v
	}
	if changed == nil {
		return nil
	}
	if id, ok := old.RowID(); ok {
		changed["id"] = id
	}
	return changed
}
