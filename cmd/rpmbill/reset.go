package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lchcare/rpmbill/internal/db"
	"github.com/lchcare/rpmbill/internal/exitcode"
	"github.com/lchcare/rpmbill/internal/logging"
	"github.com/lchcare/rpmbill/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Truncate the code ledger (development/test only)",
	Long:  "Truncates all ledger entries, device links, and run audit rows with identity reset. Re-running every rule against unchanged source data then reproduces the full entry set. Never part of normal operation.",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&cfg.Yes, "yes", false, "Confirm the truncation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if !cfg.Yes {
		log.Error().Msg("reset deletes every ledger entry; pass --yes to confirm")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if err := store.NewLedger(pool).Reset(ctx); err != nil {
		log.Error().Err(err).Msg("reset failed")
		os.Exit(exitcode.RuleError)
	}

	fmt.Println("Ledger reset complete")
	return nil
}
