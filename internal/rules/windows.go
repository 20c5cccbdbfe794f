package rules

import (
	"sort"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
)

// TrailingWindow returns the start of the fixed trailing span of the given
// number of days ending at asOf. A reading exactly `days` days before asOf
// is in the window (inclusive lower bound).
func TrailingWindow(asOf time.Time, days int) time.Time {
	return asOf.AddDate(0, 0, -days)
}

// MonthWindow returns the start of the trailing calendar month: asOf rolled
// back to the same day-of-month one month prior. This is deliberately not a
// fixed 30-day span. Go's AddDate normalization applies at month ends
// (e.g. Mar 31 → Mar 3 via Feb 31), matching time package convention.
// Every calendar-month rule and dashboard view must go through this helper
// so displays never disagree with billing.
func MonthWindow(asOf time.Time) time.Time {
	return asOf.AddDate(0, -1, 0)
}

// inWindow reports whether t falls in [from, to]. A zero from means no
// lower bound.
func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	return !t.After(to)
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func toDayKey(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// distinctDays counts distinct calendar days among the reading timestamps.
func distinctDays(readings []model.Reading) int {
	days := make(map[dayKey]struct{}, len(readings))
	for _, r := range readings {
		days[toDayKey(r.RecordedAt)] = struct{}{}
	}
	return len(days)
}

// sortCandidates orders candidates by patient then device for deterministic
// rule output.
func sortCandidates(cands []model.Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].PatientID != cands[j].PatientID {
			return cands[i].PatientID < cands[j].PatientID
		}
		di, dj := int64(0), int64(0)
		if cands[i].DeviceID != nil {
			di = *cands[i].DeviceID
		}
		if cands[j].DeviceID != nil {
			dj = *cands[j].DeviceID
		}
		return di < dj
	})
}
