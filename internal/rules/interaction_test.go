package rules

import (
	"context"
	"testing"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

func TestFirstInteraction_TwentyMinuteThreshold(t *testing.T) {
	asOf := ts(2025, time.February, 28, 12)
	latest := ts(2025, time.February, 20, 15)

	t.Run("1199_seconds_no_candidate", func(t *testing.T) {
		ev := &memEvents{notes: []model.Note{
			note(1, "Care Coordination", ts(2025, time.February, 10, 9), 600),
			note(1, "Care Coordination", latest, 599),
		}}
		cands, err := evalFirstInteraction(context.Background(), ev, &memLedger{}, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 0 {
			t.Fatalf("candidates: got %d, want 0", len(cands))
		}
	})

	t.Run("1200_seconds_one_candidate", func(t *testing.T) {
		ev := &memEvents{notes: []model.Note{
			note(1, "Care Coordination", ts(2025, time.February, 10, 9), 600),
			note(1, "Care Coordination", latest, 600),
		}}
		cands, err := evalFirstInteraction(context.Background(), ev, &memLedger{}, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 1 {
			t.Fatalf("candidates: got %d, want 1", len(cands))
		}
		if !cands[0].ServiceDate.Equal(latest) {
			t.Errorf("service date: got %v, want latest in-window note %v", cands[0].ServiceDate, latest)
		}
	})
}

func TestFirstInteraction_MonthRollbackBoundary(t *testing.T) {
	// The window start is the same day-of-month one month prior, inclusive.
	asOf := ts(2025, time.February, 28, 12)
	boundary := asOf.AddDate(0, -1, 0) // Jan 28 12:00

	t.Run("note_at_boundary_included", func(t *testing.T) {
		ev := &memEvents{notes: []model.Note{
			note(1, "Care Coordination", boundary, 1200),
		}}
		cands, err := evalFirstInteraction(context.Background(), ev, &memLedger{}, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 1 {
			t.Fatalf("candidates: got %d, want 1 (boundary note must count)", len(cands))
		}
	})

	t.Run("note_before_boundary_excluded", func(t *testing.T) {
		ev := &memEvents{notes: []model.Note{
			note(1, "Care Coordination", boundary.Add(-time.Second), 1200),
		}}
		cands, err := evalFirstInteraction(context.Background(), ev, &memLedger{}, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 0 {
			t.Fatalf("candidates: got %d, want 0", len(cands))
		}
	})
}

func TestFirstInteraction_OncePerMonth(t *testing.T) {
	asOf := ts(2025, time.February, 28, 12)
	ev := &memEvents{notes: []model.Note{
		note(1, "Care Coordination", ts(2025, time.February, 10, 9), 1500),
	}}

	t.Run("applied_this_month_blocks", func(t *testing.T) {
		led := &memLedger{entries: []model.LedgerEntry{
			{PatientID: 1, CPT: model.CPTFirstInteraction, AppliedAt: ts(2025, time.February, 5, 0)},
		}}
		cands, err := evalFirstInteraction(context.Background(), ev, led, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 0 {
			t.Fatalf("candidates: got %d, want 0", len(cands))
		}
	})

	t.Run("applied_last_month_does_not_block", func(t *testing.T) {
		led := &memLedger{entries: []model.LedgerEntry{
			{PatientID: 1, CPT: model.CPTFirstInteraction, AppliedAt: ts(2025, time.January, 20, 0)},
		}}
		cands, err := evalFirstInteraction(context.Background(), ev, led, asOf)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(cands) != 1 {
			t.Fatalf("candidates: got %d, want 1", len(cands))
		}
	})
}

func TestAdditionalInteraction_BlockFanOut(t *testing.T) {
	asOf := ts(2025, time.February, 28, 12)
	latest := ts(2025, time.February, 20, 15)

	mkEvents := func(totalSeconds int64) *memEvents {
		// Split across two notes; the later one carries the service date.
		return &memEvents{notes: []model.Note{
			note(1, "Care Coordination", ts(2025, time.February, 10, 9), totalSeconds-60),
			note(1, "Care Coordination", latest, 60),
		}}
	}

	cases := []struct {
		name         string
		totalSeconds int64
		already      int
		want         int
	}{
		{"one_block_reserved_for_first", 1200, 0, 0},
		{"two_blocks_yield_one", 2400, 0, 1},
		{"3601_seconds_yield_two", 3601, 0, 2},
		{"four_blocks_yield_three", 4800, 0, 3},
		{"blocks_capped_at_four", 9600, 0, 3},
		{"already_applied_reduces", 4800, 2, 1},
		{"month_cap_reached", 4800, 3, 0},
		{"already_exceeds_blocks", 1200, 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			led := &memLedger{}
			for i := 0; i < tc.already; i++ {
				led.entries = append(led.entries, model.LedgerEntry{
					PatientID: 1, CPT: model.CPTAdditionalInteraction,
					AppliedAt: ts(2025, time.February, 5+i, 0),
				})
			}
			cands, err := evalAdditionalInteraction(context.Background(), mkEvents(tc.totalSeconds), led, asOf)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if len(cands) != tc.want {
				t.Fatalf("candidates: got %d, want %d", len(cands), tc.want)
			}
			for i, c := range cands {
				if !c.ServiceDate.Equal(latest) {
					t.Errorf("candidate %d service date: got %v, want shared latest %v", i, c.ServiceDate, latest)
				}
			}
		})
	}
}

func TestAdditionalInteraction_MonthTotalNeverExceedsThree(t *testing.T) {
	// Apply in two passes within the same month; the running total stays at 3.
	asOf := ts(2025, time.February, 28, 12)
	ev := &memEvents{notes: []model.Note{
		note(1, "Care Coordination", ts(2025, time.February, 20, 15), 9600),
	}}
	led := &memLedger{}

	first, err := evalAdditionalInteraction(context.Background(), ev, led, asOf)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("first run: got %d candidates, want 3", len(first))
	}
	led.apply(model.CPTAdditionalInteraction, first)

	second, err := evalAdditionalInteraction(context.Background(), ev, led, asOf)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second run: got %d candidates, want 0", len(second))
	}
}
