package model

import "time"

// Modality is the telemetry kind a device produces.
type Modality string

const (
	ModalityGlucose       Modality = "glucose"
	ModalityBloodPressure Modality = "blood_pressure"
)

// AllModalities in canonical order.
var AllModalities = []Modality{ModalityGlucose, ModalityBloodPressure}

// NoteTypeInitialEval tags the clinical note type that counts toward the
// initial-visit code.
const NoteTypeInitialEval = "Initial Evaluation"

// Device is a telemetry device owned by exactly one patient. Each device
// produces readings of a single modality.
type Device struct {
	ID        int64
	PatientID int64
	Name      string
	Modality  Modality
}

// Note is a clinical interaction record.
type Note struct {
	ID              int64
	PatientID       int64
	Type            string
	RecordedAt      time.Time
	DurationSeconds int64
}

// Reading is a single telemetry record. PatientID is denormalized from the
// owning device so per-patient rules can pool across devices.
type Reading struct {
	ID         int64
	DeviceID   int64
	PatientID  int64
	Modality   Modality
	RecordedAt time.Time
}

// LedgerEntry is one applied billing code. AppliedAt is the service date.
// Entries are immutable once written; DeviceID is set only for 99453.
type LedgerEntry struct {
	ID        int64
	PatientID int64
	CPT       string
	AppliedAt time.Time
	DeviceID  *int64
}

// Candidate is one (patient, service date[, device]) tuple a rule wants to
// commit. DeviceID is non-nil only for DeviceSetup candidates.
type Candidate struct {
	PatientID   int64
	ServiceDate time.Time
	DeviceID    *int64
}
