package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	grist "github.com/tablesync/go-grist"
	"github.com/tablesync/go-grist/adapters/csvfile"
	"github.com/tablesync/go-grist/adapters/excel"
)

var syncCmd = &cobra.Command{
	Use:   "sync TABLE FILE",
	Short: "Reconcile a table with records from a CSV or Excel file",
	Long: `Reconcile a table with the records of a local file. Rows are matched
by the --key columns: a matched row is updated in place (only the
columns that differ), an unmatched record is inserted, and no row is
ever removed.

The file's first row names the columns. CSV (.csv) and Excel (.xlsx,
.xlsm) files are supported.
`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSlice("key", nil, "Key columns used to match records to existing rows (required)")
	syncCmd.Flags().String("filter", "", "JSON filter restricting the sync to matching rows")
	_ = syncCmd.MarkFlagRequired("key")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	keyCols, _ := cmd.Flags().GetStringSlice("key")
	filter, err := parseFilterFlag(cmd)
	if err != nil {
		return err
	}

	source, err := openSource(args[1])
	if err != nil {
		return err
	}
	records, err := source.Load(cmd.Context())
	if err != nil {
		return err
	}

	var opts *grist.SyncOptions
	if filter != nil {
		opts = &grist.SyncOptions{Filters: filter}
	}
	result, err := client.SyncTable(cmd.Context(), args[0], records, keyCols, opts)
	if err != nil {
		return err
	}

	fmt.Printf("updated %d, added %d, unchanged %d, filtered out %d\n",
		result.Updated, result.Added, result.Unchanged, result.FilteredOut)
	return nil
}

func openSource(path string) (grist.RecordSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvfile.New(path), nil
	case ".xlsx", ".xlsm":
		return excel.New(excel.Config{FilePath: path})
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}
