package model

import "time"

// BillingRow is one billing report row: a patient's applied codes for a
// single service day joined with identity, payer, and diagnosis snapshots.
// Parquet tags match the serving export schema.
type BillingRow struct {
	PatientID    int64  `parquet:"patient_id"`
	SharePointID int64  `parquet:"sharepoint_id"`
	LastName     string `parquet:"last_name"`
	FirstName    string `parquet:"first_name"`
	DateOfBirth  string `parquet:"date_of_birth"` // YYYY-MM-DD

	Street  string `parquet:"street"`
	City    string `parquet:"city"`
	State   string `parquet:"state"`
	Zipcode string `parquet:"zipcode"`

	PayerName  string  `parquet:"payer_name"`
	MedicareID *string `parquet:"medicare_id,optional"`

	DxCodes string `parquet:"dx_codes"`

	ServiceDate string `parquet:"service_date"` // YYYY-MM-DD

	// Per-code counts for the service day, zero-filled.
	Count99202 int32 `parquet:"count_99202"`
	Count99453 int32 `parquet:"count_99453"`
	Count99454 int32 `parquet:"count_99454"`
	Count99457 int32 `parquet:"count_99457"`
	Count99458 int32 `parquet:"count_99458"`
}

// ServiceDay parses the row's service date.
func (r *BillingRow) ServiceDay() (time.Time, error) {
	return time.Parse("2006-01-02", r.ServiceDate)
}

// NoteMinutesRow is a dashboard aggregate: total note minutes for a patient
// over the trailing calendar month. Recomputed per query, never persisted.
type NoteMinutesRow struct {
	PatientID int64
	Minutes   float64
}

// ReadingDaysRow is a dashboard aggregate: distinct calendar days with at
// least one reading for a patient over the trailing calendar month.
type ReadingDaysRow struct {
	PatientID int64
	Days      int
}
