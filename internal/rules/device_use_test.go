package rules

import (
	"context"
	"testing"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

func TestDeviceUse_WindowBoundary(t *testing.T) {
	asOf := ts(2025, time.February, 28, 12)

	t.Run("reading_exactly_30_days_before_included", func(t *testing.T) {
		// 15 recent days plus one reading at the exact window start.
		readings := readingsOnDays(10, 1, model.ModalityGlucose, ts(2025, time.February, 27, 8), seqDays(15)...)
		readings = append(readings, reading(10, 1, model.ModalityGlucose, asOf.AddDate(0, 0, -30)))

		ev := &memEvents{readings: readings}
		cands, err := evalDeviceUse(context.Background(), ev, &memLedger{}, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 1 {
			t.Fatalf("candidates: got %d, want 1 (boundary reading must count)", len(cands))
		}
	})

	t.Run("reading_31_days_before_excluded", func(t *testing.T) {
		readings := readingsOnDays(10, 1, model.ModalityGlucose, ts(2025, time.February, 27, 8), seqDays(15)...)
		readings = append(readings, reading(10, 1, model.ModalityGlucose, asOf.AddDate(0, 0, -31)))

		ev := &memEvents{readings: readings}
		cands, err := evalDeviceUse(context.Background(), ev, &memLedger{}, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 0 {
			t.Fatalf("candidates: got %d, want 0 (15 in-window days)", len(cands))
		}
	})
}

func TestDeviceUse_PoolsModalities(t *testing.T) {
	// 8 glucose days and 8 blood pressure days on distinct dates pool to 16.
	asOf := ts(2025, time.February, 28, 12)

	var readings []model.Reading
	readings = append(readings, readingsOnDays(10, 1, model.ModalityGlucose, ts(2025, time.February, 27, 8), seqDays(8)...)...)
	readings = append(readings, readingsOnDays(11, 1, model.ModalityBloodPressure, ts(2025, time.February, 15, 8), seqDays(8)...)...)

	ev := &memEvents{readings: readings}
	cands, err := evalDeviceUse(context.Background(), ev, &memLedger{}, asOf)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("candidates: got %d, want 1", len(cands))
	}
	// Service date is the later of the two modalities' latest readings.
	want := ts(2025, time.February, 27, 8)
	if !cands[0].ServiceDate.Equal(want) {
		t.Errorf("service date: got %v, want %v", cands[0].ServiceDate, want)
	}
}

func TestDeviceUse_ExclusionWindow(t *testing.T) {
	asOf := ts(2025, time.February, 28, 12)
	readings := readingsOnDays(10, 1, model.ModalityGlucose, ts(2025, time.February, 27, 8), seqDays(16)...)

	t.Run("entry_in_window_blocks", func(t *testing.T) {
		led := &memLedger{entries: []model.LedgerEntry{
			{PatientID: 1, CPT: model.CPTDeviceUse, AppliedAt: ts(2025, time.February, 10, 0)},
		}}
		cands, err := evalDeviceUse(context.Background(), &memEvents{readings: readings}, led, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 0 {
			t.Fatalf("candidates: got %d, want 0", len(cands))
		}
	})

	t.Run("entry_outside_window_does_not_block", func(t *testing.T) {
		led := &memLedger{entries: []model.LedgerEntry{
			{PatientID: 1, CPT: model.CPTDeviceUse, AppliedAt: asOf.AddDate(0, 0, -31)},
		}}
		cands, err := evalDeviceUse(context.Background(), &memEvents{readings: readings}, led, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 1 {
			t.Fatalf("candidates: got %d, want 1 (prior window rolled off)", len(cands))
		}
	})

	t.Run("other_codes_do_not_block", func(t *testing.T) {
		led := &memLedger{entries: []model.LedgerEntry{
			{PatientID: 1, CPT: model.CPTFirstInteraction, AppliedAt: ts(2025, time.February, 10, 0)},
		}}
		cands, err := evalDeviceUse(context.Background(), &memEvents{readings: readings}, led, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 1 {
			t.Fatalf("candidates: got %d, want 1", len(cands))
		}
	})
}
