package rules

import (
	"context"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

// In-memory EventStore and CodeLedger so rules can be exercised without a
// backing database.

type memEvents struct {
	notes    []model.Note
	readings []model.Reading
	devices  []model.Device
}

func (m *memEvents) Notes(_ context.Context, from, to time.Time) ([]model.Note, error) {
	var out []model.Note
	for _, n := range m.notes {
		if inWindow(n.RecordedAt, from, to) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memEvents) Readings(_ context.Context, from, to time.Time) ([]model.Reading, error) {
	var out []model.Reading
	for _, r := range m.readings {
		if inWindow(r.RecordedAt, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memEvents) Devices(_ context.Context, modality model.Modality) ([]model.Device, error) {
	var out []model.Device
	for _, d := range m.devices {
		if d.Modality == modality {
			out = append(out, d)
		}
	}
	return out, nil
}

type memLedger struct {
	entries []model.LedgerEntry
}

func (m *memLedger) Entries(_ context.Context, f EntryFilter) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	for _, e := range m.entries {
		if f.PatientID != 0 && e.PatientID != f.PatientID {
			continue
		}
		if len(f.CPTs) > 0 && !containsStr(f.CPTs, e.CPT) {
			continue
		}
		if !f.Since.IsZero() && e.AppliedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && e.AppliedAt.After(f.Until) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// apply commits candidates the way the engine would, so idempotence can be
// checked by re-evaluating.
func (m *memLedger) apply(cpt string, cands []model.Candidate) {
	for _, c := range cands {
		m.entries = append(m.entries, model.LedgerEntry{
			ID:        int64(len(m.entries) + 1),
			PatientID: c.PatientID,
			CPT:       cpt,
			AppliedAt: c.ServiceDate,
			DeviceID:  c.DeviceID,
		})
	}
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ---------- builders ----------

func ts(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func note(pid int64, typ string, at time.Time, seconds int64) model.Note {
	return model.Note{PatientID: pid, Type: typ, RecordedAt: at, DurationSeconds: seconds}
}

func reading(deviceID, pid int64, mod model.Modality, at time.Time) model.Reading {
	return model.Reading{DeviceID: deviceID, PatientID: pid, Modality: mod, RecordedAt: at}
}

func device(id, pid int64, mod model.Modality) model.Device {
	return model.Device{ID: id, PatientID: pid, Modality: mod}
}

// readingsOnDays produces one reading per listed day offset from base.
func readingsOnDays(deviceID, pid int64, mod model.Modality, base time.Time, dayOffsets ...int) []model.Reading {
	out := make([]model.Reading, 0, len(dayOffsets))
	for _, off := range dayOffsets {
		out = append(out, reading(deviceID, pid, mod, base.AddDate(0, 0, off)))
	}
	return out
}

func seqDays(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -i
	}
	return out
}
