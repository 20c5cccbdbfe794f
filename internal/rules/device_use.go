package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

// deviceUseWindowDays is the fixed trailing span for 99454, distinct from
// the calendar-month windows of the interaction rules.
const deviceUseWindowDays = 30

// evalDeviceUse is the 99454 rule. Readings of both modalities are pooled
// per patient; the idempotency key is the patient. At most one entry per
// patient per rolling 30-day window. Service date is the latest in-window
// reading, which with pooling is the later of the two modalities' latest.
func evalDeviceUse(ctx context.Context, ev EventStore, led CodeLedger, asOf time.Time) ([]model.Candidate, error) {
	from := TrailingWindow(asOf, deviceUseWindowDays)

	readings, err := ev.Readings(ctx, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("read readings: %w", err)
	}
	byPatient := make(map[int64][]model.Reading)
	for _, r := range readings {
		byPatient[r.PatientID] = append(byPatient[r.PatientID], r)
	}

	coded, err := codedPatients(ctx, led, EntryFilter{
		CPTs:  []string{model.CPTDeviceUse},
		Since: from,
		Until: asOf,
	})
	if err != nil {
		return nil, err
	}

	var cands []model.Candidate
	for pid, rs := range byPatient {
		if _, ok := coded[pid]; ok {
			continue
		}
		if distinctDays(rs) < qualifyingDays {
			continue
		}
		var latest time.Time
		for _, r := range rs {
			if r.RecordedAt.After(latest) {
				latest = r.RecordedAt
			}
		}
		cands = append(cands, model.Candidate{PatientID: pid, ServiceDate: latest})
	}
	sortCandidates(cands)
	return cands, nil
}
