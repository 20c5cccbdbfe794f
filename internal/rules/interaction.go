package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

// Interaction time is billed in 20-minute blocks: the first block is 99457,
// each further block is 99458, capped at 3 additional per calendar month.
const (
	interactionBlockSeconds = 20 * 60
	maxMonthBlocks          = 4
)

// monthNoteTotals sums note seconds per patient over the trailing calendar
// month and tracks the latest in-window note timestamp, which becomes the
// service date for both interaction rules.
func monthNoteTotals(ctx context.Context, ev EventStore, asOf time.Time) (map[int64]int64, map[int64]time.Time, error) {
	from := MonthWindow(asOf)
	notes, err := ev.Notes(ctx, from, asOf)
	if err != nil {
		return nil, nil, fmt.Errorf("read notes: %w", err)
	}
	seconds := make(map[int64]int64)
	latest := make(map[int64]time.Time)
	for _, n := range notes {
		seconds[n.PatientID] += n.DurationSeconds
		if n.RecordedAt.After(latest[n.PatientID]) {
			latest[n.PatientID] = n.RecordedAt
		}
	}
	return seconds, latest, nil
}

// evalFirstInteraction is the 99457 rule: at least one full 20-minute block
// of note time in the trailing calendar month, at most once per patient per
// month.
func evalFirstInteraction(ctx context.Context, ev EventStore, led CodeLedger, asOf time.Time) ([]model.Candidate, error) {
	seconds, latest, err := monthNoteTotals(ctx, ev, asOf)
	if err != nil {
		return nil, err
	}

	coded, err := codedPatients(ctx, led, EntryFilter{
		CPTs:  []string{model.CPTFirstInteraction},
		Since: MonthWindow(asOf),
		Until: asOf,
	})
	if err != nil {
		return nil, err
	}

	var cands []model.Candidate
	for pid, total := range seconds {
		if total < interactionBlockSeconds {
			continue
		}
		if _, ok := coded[pid]; ok {
			continue
		}
		cands = append(cands, model.Candidate{PatientID: pid, ServiceDate: latest[pid]})
	}
	sortCandidates(cands)
	return cands, nil
}

// evalAdditionalInteraction is the 99458 rule, the only one that can emit
// several candidates per patient per invocation. The first block of the
// month is reserved for 99457, so with b full blocks (capped at 4) and n
// 99458 entries already applied this month, the rule emits b-n-1 new
// candidates; the month's running 99458 total never exceeds 3.
func evalAdditionalInteraction(ctx context.Context, ev EventStore, led CodeLedger, asOf time.Time) ([]model.Candidate, error) {
	seconds, latest, err := monthNoteTotals(ctx, ev, asOf)
	if err != nil {
		return nil, err
	}

	entries, err := led.Entries(ctx, EntryFilter{
		CPTs:  []string{model.CPTAdditionalInteraction},
		Since: MonthWindow(asOf),
		Until: asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	already := make(map[int64]int64)
	for _, e := range entries {
		already[e.PatientID]++
	}

	var cands []model.Candidate
	for pid, total := range seconds {
		blocks := total / interactionBlockSeconds
		if blocks > maxMonthBlocks {
			blocks = maxMonthBlocks
		}
		emit := blocks - already[pid] - 1
		for i := int64(0); i < emit; i++ {
			cands = append(cands, model.Candidate{PatientID: pid, ServiceDate: latest[pid]})
		}
	}
	sortCandidates(cands)
	return cands, nil
}
