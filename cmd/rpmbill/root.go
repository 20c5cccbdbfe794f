package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lchcare/rpmbill/internal/config"
	"github.com/lchcare/rpmbill/internal/exitcode"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "rpmbill",
	Short: "Medicare RPM billing code engine",
	Long:  "Evaluates time-windowed Medicare RPM qualification rules against clinical notes and device telemetry, records earned CPT codes in an append-only ledger, and builds billing reports.",
}

func init() {
	// .env mirrors how operators configure the database locally; absence is fine.
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("RPMBILL_DB_URL"), "Postgres connection string (or set RPMBILL_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
