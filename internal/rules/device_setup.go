package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

// qualifyingDays is the distinct-calendar-day threshold shared by the
// device-setup and device-use rules.
const qualifyingDays = 16

// evalDeviceSetup builds the 99453 rule for one telemetry modality. The
// idempotency key is the device, not the patient: a patient with a glucose
// meter and a blood pressure cuff earns the code once per device. Counting
// is lifetime with no lookback limit, and the code never recurs for a
// device.
func evalDeviceSetup(modality model.Modality) EvalFunc {
	return func(ctx context.Context, ev EventStore, led CodeLedger, asOf time.Time) ([]model.Candidate, error) {
		devices, err := ev.Devices(ctx, modality)
		if err != nil {
			return nil, fmt.Errorf("read devices: %w", err)
		}
		if len(devices) == 0 {
			return nil, nil
		}

		readings, err := ev.Readings(ctx, time.Time{}, asOf)
		if err != nil {
			return nil, fmt.Errorf("read readings: %w", err)
		}
		byDevice := make(map[int64][]model.Reading)
		for _, r := range readings {
			if r.Modality != modality {
				continue
			}
			byDevice[r.DeviceID] = append(byDevice[r.DeviceID], r)
		}

		linked, err := linkedDevices(ctx, led)
		if err != nil {
			return nil, err
		}

		var cands []model.Candidate
		for _, dev := range devices {
			if _, ok := linked[dev.ID]; ok {
				continue
			}
			devReadings := byDevice[dev.ID]
			if distinctDays(devReadings) < qualifyingDays {
				continue
			}
			var latest time.Time
			for _, r := range devReadings {
				if r.RecordedAt.After(latest) {
					latest = r.RecordedAt
				}
			}
			deviceID := dev.ID
			cands = append(cands, model.Candidate{
				PatientID:   dev.PatientID,
				ServiceDate: latest,
				DeviceID:    &deviceID,
			})
		}
		sortCandidates(cands)
		return cands, nil
	}
}

// linkedDevices returns the set of device ids already linked to a 99453
// entry, across both modalities and all time.
func linkedDevices(ctx context.Context, led CodeLedger) (map[int64]struct{}, error) {
	entries, err := led.Entries(ctx, EntryFilter{CPTs: []string{model.CPTDeviceSetup}})
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	set := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if e.DeviceID != nil {
			set[*e.DeviceID] = struct{}{}
		}
	}
	return set, nil
}
