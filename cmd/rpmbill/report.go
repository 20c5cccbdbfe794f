package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lchcare/rpmbill/internal/db"
	"github.com/lchcare/rpmbill/internal/exitcode"
	"github.com/lchcare/rpmbill/internal/logging"
	"github.com/lchcare/rpmbill/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the billing report for a date range",
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&cfg.Start, "start", "", "Range start YYYY-MM-DD (required)")
	f.StringVar(&cfg.End, "end", "", "Range end YYYY-MM-DD, inclusive (required)")
	f.StringVar(&cfg.Out, "out", "", "Write rows to this Parquet file instead of stdout")
	_ = reportCmd.MarkFlagRequired("start")
	_ = reportCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	start, end, err := cfg.ParseRange()
	if err != nil {
		log.Error().Err(err).Msg("invalid report range")
		os.Exit(exitcode.ValidationError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	rows, err := report.Generate(ctx, pool, log, start, end)
	if err != nil {
		log.Error().Err(err).Msg("report generation failed")
		os.Exit(exitcode.ReportError)
	}

	if cfg.Out != "" {
		if err := report.WriteParquet(cfg.Out, rows); err != nil {
			log.Error().Err(err).Msg("report export failed")
			os.Exit(exitcode.ReportError)
		}
		fmt.Printf("Report complete: %d rows written to %s\n", len(rows), cfg.Out)
		return nil
	}

	fmt.Printf("%-8s %-20s %-12s %-24s %6s %6s %6s %6s %6s\n",
		"patient", "name", "service", "payer", "99202", "99453", "99454", "99457", "99458")
	for _, r := range rows {
		fmt.Printf("%-8d %-20s %-12s %-24s %6d %6d %6d %6d %6d\n",
			r.PatientID, r.LastName+", "+r.FirstName, r.ServiceDate, r.PayerName,
			r.Count99202, r.Count99453, r.Count99454, r.Count99457, r.Count99458)
	}
	fmt.Printf("\n%d rows\n", len(rows))
	return nil
}
