package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"hoareca_growth_hub/internal/csvio"
	"hoareca_growth_hub/internal/funnel"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/platform/db"
	"hoareca_growth_hub/platform/httpkit"
	"hoareca_growth_hub/platform/validator"

	"github.com/spf13/cobra"
)

var (
	exportFrom     string
	exportTo       string
	exportPincodes []string
	exportFormat   string
	exportOut      string
	exportTimezone string
)

var exportLeadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Export leads as CSV or XLSX",
	Long: `Writes leads created in an optional date range, optionally limited to
some pincodes. Dates are YYYY-MM-DD calendar days in --timezone.`,
	Args: cobra.NoArgs,
	RunE: runExportLeads,
}

func init() {
	exportLeadsCmd.Flags().StringVar(&exportFrom, "from", "", "first day, YYYY-MM-DD")
	exportLeadsCmd.Flags().StringVar(&exportTo, "to", "", "last day, YYYY-MM-DD")
	exportLeadsCmd.Flags().StringSliceVar(&exportPincodes, "pincode", nil, "pincode filter, repeatable")
	exportLeadsCmd.Flags().StringVar(&exportFormat, "format", csvio.FormatCSV, "csv or xlsx")
	exportLeadsCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, stdout when empty")
	exportLeadsCmd.Flags().StringVar(&exportTimezone, "timezone", "Asia/Kolkata", "calendar for dates")
}

func runExportLeads(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	ctx := cmd.Context()

	format := strings.ToLower(exportFormat)
	if format != csvio.FormatCSV && format != csvio.FormatXLSX {
		return fmt.Errorf("unsupported format %q", exportFormat)
	}
	loc, err := time.LoadLocation(exportTimezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	from, to, err := httpkit.ParseDateRange(exportFrom, exportTo, loc)
	if err != nil {
		return err
	}
	for _, p := range exportPincodes {
		if !validator.IsPincode(p) {
			return fmt.Errorf("invalid pincode %q", p)
		}
	}

	cfg, err := requireDatabase()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	window := funnel.DayFilter(from, to, "", loc)
	params := repository.ListParams{}
	if !window.From.IsZero() {
		params.From = &window.From
	}
	if !window.To.IsZero() {
		params.To = &window.To
	}
	if len(exportPincodes) > 0 {
		params.Pincodes = exportPincodes
	}
	leads, err := repository.New(pool).ListLeads(ctx, params)
	if err != nil {
		log.DatabaseError("export leads", err)
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	if err := csvio.WriteLeads(w, format, leads, loc); err != nil {
		return err
	}
	log.Info("leads exported", "count", len(leads), "format", format)
	return nil
}
