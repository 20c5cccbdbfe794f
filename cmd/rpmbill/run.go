package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lchcare/rpmbill/internal/db"
	"github.com/lchcare/rpmbill/internal/engine"
	"github.com/lchcare/rpmbill/internal/exitcode"
	"github.com/lchcare/rpmbill/internal/logging"
	"github.com/lchcare/rpmbill/internal/rules"
)

var (
	runRule       string
	runConfigFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate qualification rules and apply earned codes",
	Long:  "Runs the configured rules as of the reference date; each rule's evaluation and ledger write commit in one transaction. Scheduling is external: one invocation per batch cycle.",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&cfg.AsOf, "as-of", "", "Reference date YYYY-MM-DD (default: today)")
	f.StringVar(&runRule, "rule", "", "Run a single rule by name (default: all configured rules)")
	f.StringVar(&runConfigFile, "config", "", "YAML config file selecting a rule subset")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if runConfigFile != "" {
		if err := cfg.LoadFromFile(runConfigFile); err != nil {
			log.Error().Err(err).Msg("config file invalid")
			os.Exit(exitcode.UsageError)
		}
	}

	asOf, err := cfg.ParseAsOf()
	if err != nil {
		log.Error().Err(err).Msg("invalid reference date")
		os.Exit(exitcode.ValidationError)
	}

	ruleNames := cfg.Rules
	if runRule != "" {
		if _, ok := rules.ByName(runRule); !ok {
			log.Error().Str("rule", runRule).Strs("known", rules.Names()).Msg("unknown rule")
			os.Exit(exitcode.UsageError)
		}
		ruleNames = []string{runRule}
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	eng := engine.New(pool, log)
	batch, err := eng.RunAll(ctx, asOf, ruleNames)
	if err != nil {
		var re *engine.RunError
		if errors.As(err, &re) {
			log.Error().Err(re.Err).Str("rule", re.Rule).Str("phase", re.Phase).Msg("rule run failed")
			if re.Phase == "validate" {
				os.Exit(exitcode.ValidationError)
			}
			os.Exit(exitcode.RuleError)
		}
		log.Error().Err(err).Msg("rule run failed")
		os.Exit(exitcode.RuleError)
	}

	for _, run := range batch.Runs {
		fmt.Printf("%-24s %s: %d new entries\n", run.Rule, run.AsOf.Format("2006-01-02"), run.EntriesAdded)
	}
	fmt.Printf("Batch complete: %d entries across %d rules (%.1fs)\n",
		batch.TotalEntries, len(batch.Runs), batch.DurationTotal.Seconds())
	return nil
}
