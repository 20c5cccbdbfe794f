// Package engine orchestrates rule invocations. Each invocation runs in one
// transaction: the exclusion read, candidate evaluation, ledger insert, and
// device links commit together or not at all. A per-rule advisory lock
// serializes same-rule invocations; this single-writer guard is a hard
// correctness precondition because the "not already applied" exclusion is a
// point-in-time read, not an atomic conditional insert. Different rules may
// run concurrently: distinct lock keys, disjoint ledger slices.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/lchcare/rpmbill/internal/model"
	"github.com/lchcare/rpmbill/internal/rules"
	"github.com/lchcare/rpmbill/internal/store"
)

// ErrNoAsOf rejects an invocation with a missing reference date before any
// read or write occurs.
var ErrNoAsOf = errors.New("reference date is required")

// RunError wraps an error with the rule and phase where it occurred.
type RunError struct {
	Rule  string
	Phase string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Rule, e.Phase, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Engine evaluates rules and commits their candidates.
type Engine struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New creates an engine over the given pool.
func New(pool *pgxpool.Pool, log zerolog.Logger) *Engine {
	return &Engine{pool: pool, log: log}
}

// EvaluateAndApply runs one rule as of the reference date and commits its
// candidates. Zero qualifying candidates is a valid, non-error outcome. On
// any failure the whole invocation rolls back and zero entries are
// committed; re-running at the next cycle is safe because candidate
// selection re-derives from current ledger state.
func (e *Engine) EvaluateAndApply(ctx context.Context, rule rules.Rule, asOf time.Time) (*model.RunSummary, error) {
	if asOf.IsZero() {
		return nil, &RunError{Rule: rule.Name, Phase: "validate", Err: ErrNoAsOf}
	}

	start := time.Now()
	runID := uuid.New()

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, &RunError{Rule: rule.Name, Phase: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	// Single-writer guard, released at commit or rollback.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", rule.LockKey); err != nil {
		return nil, &RunError{Rule: rule.Name, Phase: "lock", Err: err}
	}

	events := store.NewEvents(tx)
	ledger := store.NewLedger(tx)

	cands, err := rule.Evaluate(ctx, events, ledger, asOf)
	if err != nil {
		return nil, &RunError{Rule: rule.Name, Phase: "evaluate", Err: err}
	}

	added, err := ledger.Append(ctx, rule.CPT, cands)
	if err != nil {
		return nil, &RunError{Rule: rule.Name, Phase: "apply", Err: err}
	}

	if err := ledger.RecordRun(ctx, runID.String(), rule.Name, asOf, added, start); err != nil {
		return nil, &RunError{Rule: rule.Name, Phase: "apply", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &RunError{Rule: rule.Name, Phase: "commit", Err: err}
	}

	dur := time.Since(start)
	e.log.Info().
		Str("run_id", runID.String()).
		Str("rule", rule.Name).
		Str("cpt", rule.CPT).
		Time("as_of", asOf).
		Int("candidates", len(cands)).
		Int64("entries_added", added).
		Dur("duration", dur).
		Msg("rule applied")

	return &model.RunSummary{
		RunID:        runID.String(),
		Rule:         rule.Name,
		AsOf:         asOf,
		Candidates:   len(cands),
		EntriesAdded: added,
		Duration:     dur,
	}, nil
}

// RunAll runs the named rules in canonical order and returns a batch
// summary. An empty ruleNames runs every rule.
func (e *Engine) RunAll(ctx context.Context, asOf time.Time, ruleNames []string) (*model.BatchSummary, error) {
	start := time.Now()

	selected := make(map[string]bool, len(ruleNames))
	for _, name := range ruleNames {
		if _, ok := rules.ByName(name); !ok {
			return nil, &RunError{Rule: name, Phase: "validate", Err: fmt.Errorf("unknown rule %q", name)}
		}
		selected[name] = true
	}

	batch := &model.BatchSummary{AsOf: asOf}
	for _, rule := range rules.All {
		if len(selected) > 0 && !selected[rule.Name] {
			continue
		}
		summary, err := e.EvaluateAndApply(ctx, rule, asOf)
		if err != nil {
			return nil, err
		}
		batch.Runs = append(batch.Runs, *summary)
		batch.TotalEntries += summary.EntriesAdded
	}
	batch.DurationTotal = time.Since(start)

	e.log.Info().
		Time("as_of", asOf).
		Int("rules", len(batch.Runs)).
		Int64("total_entries", batch.TotalEntries).
		Dur("duration", batch.DurationTotal).
		Msg("batch cycle complete")

	return batch, nil
}
