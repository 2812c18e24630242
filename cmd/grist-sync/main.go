package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	grist "github.com/tablesync/go-grist"
)

var rootCmd = &cobra.Command{
	Use:   "grist-sync",
	Short: "Fetch, reconcile and delete rows in Grist document tables",
	Long: `grist-sync works against the tables of one Grist document.

The document is addressed with --doc (or the GRIST_DOC environment
variable), either as a full document URL or as a bare document id
resolved against --server. The API key is taken from --api-key, the
GRIST_API_KEY environment variable, or the ~/.grist-api-key file, in
that order; pass --api-key "" to access a public document without
credentials.

Examples:
  # Print a table as JSON lines
  grist-sync fetch Inventory --doc https://docs.getgrist.com/doc/abc123def456

  # Reconcile a table with a CSV file, matching rows by the Name column
  grist-sync sync Inventory stock.csv --key Name

  # See what a sync would do without modifying the document
  grist-sync sync Inventory stock.xlsx --key Name --dry-run
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("doc", "", "Document URL or id (env GRIST_DOC)")
	rootCmd.PersistentFlags().String("server", "", "Base server URL when --doc is a bare id (env GRIST_SERVER)")
	rootCmd.PersistentFlags().String("api-key", "", "API key; an empty value disables authentication")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Log modifying calls instead of sending them")
	rootCmd.PersistentFlags().Int("chunk-size", 0, "Records per call (0 = default 500, negative = unlimited)")

	viper.SetEnvPrefix("GRIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("doc", rootCmd.PersistentFlags().Lookup("doc"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("dry-run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("chunk-size", rootCmd.PersistentFlags().Lookup("chunk-size"))
}

// newClient builds the document client from the global flags and
// environment. The api-key flag is only forwarded when explicitly set,
// so the library's own resolution chain handles the usual case.
func newClient(cmd *cobra.Command) (*grist.Client, error) {
	doc := viper.GetString("doc")
	if doc == "" {
		return nil, fmt.Errorf("no document specified, use --doc or GRIST_DOC")
	}

	config := &grist.Config{
		Server:    viper.GetString("server"),
		DryRun:    viper.GetBool("dry-run"),
		ChunkSize: viper.GetInt("chunk-size"),
	}
	if f := cmd.Flags().Lookup("api-key"); f != nil && f.Changed {
		key := f.Value.String()
		config.APIKey = &key
	}
	return grist.New(doc, config)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
