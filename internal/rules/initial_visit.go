package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

// Initial-visit qualification band: the summed duration of all
// initial-evaluation notes must land in [15, 30) minutes.
const (
	initialVisitMinSeconds = 15 * 60
	initialVisitMaxSeconds = 30 * 60
)

// evalInitialVisit is the 99202 rule. Lifetime, one-shot: no time window,
// and a patient already coded under any new-patient E/M sibling (99202-99205)
// is excluded for good. Service date is the latest qualifying note.
func evalInitialVisit(ctx context.Context, ev EventStore, led CodeLedger, asOf time.Time) ([]model.Candidate, error) {
	notes, err := ev.Notes(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}

	type acc struct {
		seconds int64
		latest  time.Time
	}
	byPatient := make(map[int64]*acc)
	for _, n := range notes {
		if n.Type != model.NoteTypeInitialEval {
			continue
		}
		a := byPatient[n.PatientID]
		if a == nil {
			a = &acc{}
			byPatient[n.PatientID] = a
		}
		a.seconds += n.DurationSeconds
		if n.RecordedAt.After(a.latest) {
			a.latest = n.RecordedAt
		}
	}

	coded, err := codedPatients(ctx, led, EntryFilter{CPTs: model.InitialVisitFamily})
	if err != nil {
		return nil, err
	}

	var cands []model.Candidate
	for pid, a := range byPatient {
		if a.seconds < initialVisitMinSeconds || a.seconds >= initialVisitMaxSeconds {
			continue
		}
		if _, ok := coded[pid]; ok {
			continue
		}
		cands = append(cands, model.Candidate{PatientID: pid, ServiceDate: a.latest})
	}
	sortCandidates(cands)
	return cands, nil
}

// codedPatients returns the set of patient ids with at least one ledger
// entry matching the filter.
func codedPatients(ctx context.Context, led CodeLedger, f EntryFilter) (map[int64]struct{}, error) {
	entries, err := led.Entries(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	set := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		set[e.PatientID] = struct{}{}
	}
	return set, nil
}
