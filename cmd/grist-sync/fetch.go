package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	grist "github.com/tablesync/go-grist"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch TABLE",
	Short: "Print a table's records as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().String("filter", "", `JSON filter, e.g. '{"Name": ["eggs", "milk"]}'`)
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	filter, err := parseFilterFlag(cmd)
	if err != nil {
		return err
	}

	records, err := client.FetchTable(cmd.Context(), args[0], filter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func parseFilterFlag(cmd *cobra.Command) (grist.Filter, error) {
	raw, _ := cmd.Flags().GetString("filter")
	if raw == "" {
		return nil, nil
	}
	var filter grist.Filter
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return nil, fmt.Errorf("parsing --filter: %w", err)
	}
	return filter, nil
}
