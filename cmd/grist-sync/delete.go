package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete TABLE ID...",
	Short: "Remove rows from a table by id",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("not a row id: %q", arg)
		}
		ids = append(ids, id)
	}

	return client.DeleteRecords(cmd.Context(), args[0], ids)
}
