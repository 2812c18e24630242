package grist

import "context"

// RecordSource loads records from a local document, ready to push into
// a table with Client.SyncTable or Client.AddRecords. Implementations
// live under adapters/.
type RecordSource interface {
	// Load reads all records. The first sheet row or CSV line names the
	// columns; every following row becomes one record.
	Load(ctx context.Context) ([]Record, error)
}
