package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lchcare/rpmbill/internal/db"
	"github.com/lchcare/rpmbill/internal/exitcode"
	"github.com/lchcare/rpmbill/internal/logging"
	"github.com/lchcare/rpmbill/internal/rules"
	"github.com/lchcare/rpmbill/internal/store"
)

var (
	ledgerPatient int64
	ledgerCPT     string
	ledgerSince   string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List applied billing codes",
	RunE:  runLedger,
}

func init() {
	f := ledgerCmd.Flags()
	f.Int64Var(&ledgerPatient, "patient", 0, "Filter by patient id")
	f.StringVar(&ledgerCPT, "cpt", "", "Filter by CPT code")
	f.StringVar(&ledgerSince, "since", "", "Only entries applied on or after YYYY-MM-DD")
	rootCmd.AddCommand(ledgerCmd)
}

func runLedger(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	var filter rules.EntryFilter
	filter.PatientID = ledgerPatient
	if ledgerCPT != "" {
		filter.CPTs = []string{ledgerCPT}
	}
	if ledgerSince != "" {
		since, err := time.Parse("2006-01-02", ledgerSince)
		if err != nil {
			log.Error().Err(err).Msg("invalid --since date")
			os.Exit(exitcode.ValidationError)
		}
		filter.Since = since
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	entries, err := store.NewLedger(pool).Entries(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("ledger read failed")
		os.Exit(exitcode.ReportError)
	}

	fmt.Printf("%-8s %-8s %-6s %-20s %s\n", "entry", "patient", "cpt", "applied", "device")
	for _, e := range entries {
		device := "-"
		if e.DeviceID != nil {
			device = fmt.Sprintf("%d", *e.DeviceID)
		}
		fmt.Printf("%-8d %-8d %-6s %-20s %s\n",
			e.ID, e.PatientID, e.CPT, e.AppliedAt.Format(time.RFC3339), device)
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}
