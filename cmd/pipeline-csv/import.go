package main

import (
	"fmt"
	"os"

	"hoareca_growth_hub/internal/csvio"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/platform/db"

	"github.com/spf13/cobra"
)

var (
	mappingFile string
	dryRun      bool
)

var importProspectsCmd = &cobra.Command{
	Use:   "prospects <file.csv>",
	Short: "Import a prospect sheet",
	Long: `Reads a prospect sheet and inserts every valid row in one transaction.

Restaurant names are title-cased and contact numbers normalised to E.164.
Rows that fail validation are reported and skipped. A YAML file passed with
--mapping renames the expected columns, for example:

  restaurant_name: Outlet Name
  pincode: PIN
  contact_number: Phone`,
	Args: cobra.ExactArgs(1),
	RunE: runImportProspects,
}

func init() {
	importProspectsCmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML header mapping file")
	importProspectsCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only, do not insert")
}

type importReport struct {
	Valid    int            `json:"valid"`
	Inserted int            `json:"inserted"`
	Rejects  []csvio.Reject `json:"rejects"`
	DryRun   bool           `json:"dryRun"`
}

func runImportProspects(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := cmd.Context()

	mapping := csvio.DefaultMapping()
	if mappingFile != "" {
		m, err := csvio.LoadMapping(mappingFile)
		if err != nil {
			return err
		}
		mapping = m
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer file.Close()

	result, err := csvio.ReadProspects(file, mapping)
	if err != nil {
		return err
	}
	report := importReport{Valid: len(result.Prospects), Rejects: result.Rejects, DryRun: dryRun}

	if dryRun || len(result.Prospects) == 0 {
		return printJSON(cmd.OutOrStdout(), report)
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

	repo := repository.New(pool)
	err = repo.InTx(ctx, func(tx repository.Store) error {
		for _, p := range result.Prospects {
			if _, err := tx.CreateProspect(ctx, p); err != nil {
				return fmt.Errorf("insert %q (%s): %w", p.RestaurantName, p.Pincode, err)
			}
		}
		return nil
	})
	if err != nil {
		log.DatabaseError("import prospects", err)
		return err
	}
	report.Inserted = len(result.Prospects)
	log.Info("prospects imported", "inserted", report.Inserted, "rejected", len(report.Rejects))

	return printJSON(cmd.OutOrStdout(), report)
}
