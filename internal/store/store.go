// Package store provides the Postgres-backed implementations of the rule
// engine's EventStore and CodeLedger contracts. Both bind to a DBTX so the
// same code serves a pool for reporting reads and a transaction inside a
// rule invocation.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lchcare/rpmbill/internal/model"
)

// DBTX is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Events reads clinical notes, device readings, and devices from the ehr
// schema. The engine never writes these tables; ingestion owns them.
type Events struct {
	db DBTX
}

// NewEvents creates an event store over the given querier.
func NewEvents(db DBTX) *Events {
	return &Events{db: db}
}

// Notes returns notes with recorded_at in [from, to]. Zero from means no
// lower bound.
func (e *Events) Notes(ctx context.Context, from, to time.Time) ([]model.Note, error) {
	rows, err := e.db.Query(ctx, `
		SELECT note_id, patient_id, note_type, recorded_at, duration_seconds
		FROM ehr.patient_note
		WHERE recorded_at <= $1
		  AND ($2::timestamptz IS NULL OR recorded_at >= $2)
		ORDER BY recorded_at, note_id`,
		to, nullableTime(from))
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.PatientID, &n.Type, &n.RecordedAt, &n.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Readings returns readings with recorded_at in [from, to], joined with the
// owning device for the patient id and modality.
func (e *Events) Readings(ctx context.Context, from, to time.Time) ([]model.Reading, error) {
	rows, err := e.db.Query(ctx, `
		SELECT r.reading_id, r.device_id, d.patient_id, r.modality, r.recorded_at
		FROM ehr.device_reading r
		JOIN ehr.device d USING (device_id)
		WHERE r.recorded_at <= $1
		  AND ($2::timestamptz IS NULL OR r.recorded_at >= $2)
		ORDER BY r.recorded_at, r.reading_id`,
		to, nullableTime(from))
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []model.Reading
	for rows.Next() {
		var r model.Reading
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.PatientID, &r.Modality, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// Devices returns all devices of the given modality.
func (e *Events) Devices(ctx context.Context, modality model.Modality) ([]model.Device, error) {
	rows, err := e.db.Query(ctx, `
		SELECT device_id, patient_id, device_name, modality
		FROM ehr.device
		WHERE modality = $1
		ORDER BY device_id`,
		modality)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.PatientID, &d.Name, &d.Modality); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
