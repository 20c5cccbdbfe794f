// Package report builds the billing report and the dashboard summary views
// from the code ledger and demographic snapshots.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lchcare/rpmbill/internal/model"
	embedsql "github.com/lchcare/rpmbill/internal/sql"
	"github.com/lchcare/rpmbill/internal/store"
)

// Generate returns one row per (patient, service day) over [start, end]
// inclusive, ordered by patient id then day, with per-CPT counts
// zero-filled. Patients whose address, insurance, or diagnosis snapshot is
// missing are excluded by the inner joins and logged per patient for
// operator review. A patient with zero in-range ledger entries produces no
// row at all.
func Generate(ctx context.Context, db store.DBTX, log zerolog.Logger, start, end time.Time) ([]model.BillingRow, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("report range is required")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("report range end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	logMissingJoins(ctx, db, log, start, end)

	rows, err := db.Query(ctx, embedsql.BillingReport, start, end)
	if err != nil {
		return nil, fmt.Errorf("query billing report: %w", err)
	}
	defer rows.Close()

	var out []model.BillingRow
	for rows.Next() {
		var r model.BillingRow
		if err := rows.Scan(
			&r.PatientID, &r.SharePointID, &r.LastName, &r.FirstName, &r.DateOfBirth,
			&r.Street, &r.City, &r.State, &r.Zipcode,
			&r.PayerName, &r.MedicareID, &r.DxCodes, &r.ServiceDate,
			&r.Count99202, &r.Count99453, &r.Count99454, &r.Count99457, &r.Count99458,
		); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read report rows: %w", err)
	}

	log.Info().
		Time("start", start).
		Time("end", end).
		Int("rows", len(out)).
		Msg("billing report generated")

	return out, nil
}

// logMissingJoins warns about each patient dropped by the report's inner
// joins. Failures here never fail report generation.
func logMissingJoins(ctx context.Context, db store.DBTX, log zerolog.Logger, start, end time.Time) {
	rows, err := db.Query(ctx, embedsql.ReportMissingJoins, start, end)
	if err != nil {
		log.Warn().Err(err).Msg("missing-join check failed")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var patientID int64
		if err := rows.Scan(&patientID); err != nil {
			log.Warn().Err(err).Msg("missing-join check scan failed")
			return
		}
		log.Warn().
			Int64("patient_id", patientID).
			Msg("patient excluded from report: missing address, insurance, or diagnosis record")
	}
}
