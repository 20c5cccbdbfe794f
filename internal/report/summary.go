package report

import (
	"context"
	"fmt"
	"time"

	"github.com/lchcare/rpmbill/internal/model"
	"github.com/lchcare/rpmbill/internal/rules"
	embedsql "github.com/lchcare/rpmbill/internal/sql"
	"github.com/lchcare/rpmbill/internal/store"
)

// MonthNoteMinutes returns each patient's total note minutes over the
// trailing calendar month ending at asOf. Recomputed per call, never
// cached, and the window comes from the same rollback helper the
// interaction rules use so dashboards never disagree with billing.
func MonthNoteMinutes(ctx context.Context, db store.DBTX, asOf time.Time) ([]model.NoteMinutesRow, error) {
	from := rules.MonthWindow(asOf)

	rows, err := db.Query(ctx, embedsql.MonthNoteMinutes, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("query month note minutes: %w", err)
	}
	defer rows.Close()

	var out []model.NoteMinutesRow
	for rows.Next() {
		var r model.NoteMinutesRow
		if err := rows.Scan(&r.PatientID, &r.Minutes); err != nil {
			return nil, fmt.Errorf("scan note minutes: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MonthReadingDays returns each patient's distinct reading days over the
// trailing calendar month ending at asOf, pooled across devices.
func MonthReadingDays(ctx context.Context, db store.DBTX, asOf time.Time) ([]model.ReadingDaysRow, error) {
	from := rules.MonthWindow(asOf)

	rows, err := db.Query(ctx, embedsql.MonthReadingDays, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("query month reading days: %w", err)
	}
	defer rows.Close()

	var out []model.ReadingDaysRow
	for rows.Next() {
		var r model.ReadingDaysRow
		if err := rows.Scan(&r.PatientID, &r.Days); err != nil {
			return nil, fmt.Errorf("scan reading days: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
