package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
	"github.com/lchcare/rpmbill/internal/rules"
)

// Ledger is the append-only store of applied billing codes. Entries are
// never updated; the only delete path is Reset.
type Ledger struct {
	db DBTX
}

// NewLedger creates a ledger over the given querier.
func NewLedger(db DBTX) *Ledger {
	return &Ledger{db: db}
}

// Entries returns ledger entries matching the filter, ordered by applied
// timestamp then entry id. Device links are joined in.
func (l *Ledger) Entries(ctx context.Context, f rules.EntryFilter) ([]model.LedgerEntry, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PatientID != 0 {
		conds = append(conds, "e.patient_id = "+arg(f.PatientID))
	}
	if len(f.CPTs) > 0 {
		conds = append(conds, "e.cpt_code = ANY("+arg(f.CPTs)+")")
	}
	if !f.Since.IsZero() {
		conds = append(conds, "e.applied_at >= "+arg(f.Since))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "e.applied_at <= "+arg(f.Until))
	}

	q := `
		SELECT e.entry_id, e.patient_id, e.cpt_code, e.applied_at, d.device_id
		FROM billing.code_entry e
		LEFT JOIN billing.code_entry_device d USING (entry_id)`
	if len(conds) > 0 {
		q += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	q += "\n\t\tORDER BY e.applied_at, e.entry_id"

	rows, err := l.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.PatientID, &e.CPT, &e.AppliedAt, &e.DeviceID); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Append writes one entry per candidate under the given CPT code, inserting
// the device link alongside its entry so the two can never be committed
// separately. Callers supply a transaction-bound ledger when atomicity with
// the exclusion read matters, which is every rule invocation.
func (l *Ledger) Append(ctx context.Context, cpt string, cands []model.Candidate) (int64, error) {
	var added int64
	for _, c := range cands {
		var entryID int64
		err := l.db.QueryRow(ctx, `
			INSERT INTO billing.code_entry (patient_id, cpt_code, applied_at)
			VALUES ($1, $2, $3)
			RETURNING entry_id`,
			c.PatientID, cpt, c.ServiceDate).Scan(&entryID)
		if err != nil {
			return added, fmt.Errorf("insert entry patient=%d cpt=%s: %w", c.PatientID, cpt, err)
		}
		if c.DeviceID != nil {
			if _, err := l.db.Exec(ctx, `
				INSERT INTO billing.code_entry_device (entry_id, device_id)
				VALUES ($1, $2)`,
				entryID, *c.DeviceID); err != nil {
				return added, fmt.Errorf("insert device link entry=%d device=%d: %w", entryID, *c.DeviceID, err)
			}
		}
		added++
	}
	return added, nil
}

// Reset truncates the ledger, device links, and run audit with identity
// reset. Development and test use only: re-running every rule against
// unchanged source data reproduces the full entry set.
func (l *Ledger) Reset(ctx context.Context) error {
	_, err := l.db.Exec(ctx, `
		TRUNCATE billing.code_entry, billing.code_entry_device, billing.rule_run
		RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

// RecordRun inserts one rule_run audit row.
func (l *Ledger) RecordRun(ctx context.Context, runID string, rule string, asOf time.Time, entriesAdded int64, startedAt time.Time) error {
	_, err := l.db.Exec(ctx, `
		INSERT INTO billing.rule_run (run_id, rule, as_of, entries_added, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		runID, rule, asOf, entriesAdded, startedAt)
	if err != nil {
		return fmt.Errorf("record rule run: %w", err)
	}
	return nil
}
