// Command pipeline-csv bulk-imports prospects and exports leads.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"hoareca_growth_hub/platform/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	databaseURL string
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "pipeline-csv",
	Short: "Import prospects from CSV and export leads",
	Long: `Bulk tooling for the HoReCa pipeline.

Available subcommands:
  import prospects - load a prospect sheet into the prospects table
  export leads     - write leads as CSV or XLSX`,
	SilenceUsage: true,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records from a sheet",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records to a sheet",
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress logs")

	importCmd.AddCommand(importProspectsCmd)
	exportCmd.AddCommand(exportLeadsCmd)
	rootCmd.AddCommand(importCmd, exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger() *logger.Logger {
	if quiet {
		return logger.Discard()
	}
	return logger.NewWithWriter("production", os.Stderr)
}

type dbConfig string

func (c dbConfig) GetDatabaseURL() string { return string(c) }

func requireDatabase() (dbConfig, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return dbConfig(databaseURL), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
