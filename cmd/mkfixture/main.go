// mkfixture seeds a database with a synthetic RPM cohort for development
// runs: patients with demographic snapshots, devices of both modalities,
// clinical notes, and telemetry readings shaped so every rule has
// qualifying and non-qualifying patients.
// Usage: go run ./cmd/mkfixture --dsn $RPMBILL_DB_URL --patients 50 --as-of 2025-02-28
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lchcare/rpmbill/internal/db"
	"github.com/lchcare/rpmbill/internal/logging"
	"github.com/lchcare/rpmbill/internal/model"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("RPMBILL_DB_URL"), "Postgres connection string")
	patients := flag.Int("patients", 50, "number of patients to seed")
	asOfStr := flag.String("as-of", "", "anchor date YYYY-MM-DD for generated events (default: today)")
	seed := flag.Int64("seed", 1, "random seed for reproducible cohorts")
	flag.Parse()

	log := logging.Setup("text")
	ctx := context.Background()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "--dsn or RPMBILL_DB_URL is required")
		os.Exit(1)
	}

	asOf := time.Now().UTC()
	if *asOfStr != "" {
		var err error
		asOf, err = time.Parse("2006-01-02", *asOfStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --as-of: %v\n", err)
			os.Exit(1)
		}
	}

	pool, err := db.NewPool(ctx, *dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	var (
		deviceCount int
		noteCount   int
		readingRows [][]any
		payers      = []string{"Medicare Part B", "Humana Gold Plus", "Aetna Medicare", "UHC Dual Complete"}
		firstNames  = []string{"Alma", "Bernard", "Celia", "Dmitri", "Edith", "Frank", "Greta", "Harold"}
		lastNames   = []string{"Abbott", "Bishop", "Calloway", "Delgado", "Ellison", "Fairbanks", "Grimes", "Holt"}
		dxCodes     = []string{"E11.9", "I10", "I25.10", "E78.5", "N18.3"}
	)

	for i := 0; i < *patients; i++ {
		var patientID int64
		dob := time.Date(1940+rng.Intn(35), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
		err := pool.QueryRow(ctx, `
			INSERT INTO ehr.patient (sharepoint_id, first_name, last_name, date_of_birth, onboard_date)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING patient_id`,
			10000+i,
			firstNames[rng.Intn(len(firstNames))],
			lastNames[rng.Intn(len(lastNames))],
			dob,
			asOf.AddDate(0, -1-rng.Intn(10), 0),
		).Scan(&patientID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert patient: %v\n", err)
			os.Exit(1)
		}

		// Most patients get full snapshots; roughly 1 in 10 is missing
		// insurance so report runs exercise the missing-join path.
		if _, err := pool.Exec(ctx, `
			INSERT INTO ehr.patient_address (patient_id, street, city, state, zipcode)
			VALUES ($1, $2, 'Amarillo', 'TX', $3)`,
			patientID, fmt.Sprintf("%d Mesa Dr", 100+rng.Intn(9000)), fmt.Sprintf("791%02d", rng.Intn(100)),
		); err != nil {
			fmt.Fprintf(os.Stderr, "insert address: %v\n", err)
			os.Exit(1)
		}
		if rng.Intn(10) != 0 {
			if _, err := pool.Exec(ctx, `
				INSERT INTO ehr.patient_insurance (patient_id, payer_name, medicare_id)
				VALUES ($1, $2, $3)`,
				patientID, payers[rng.Intn(len(payers))], fmt.Sprintf("%dA%06d", 1+rng.Intn(9), rng.Intn(1000000)),
			); err != nil {
				fmt.Fprintf(os.Stderr, "insert insurance: %v\n", err)
				os.Exit(1)
			}
		}
		for _, dx := range dxCodes[:1+rng.Intn(3)] {
			if _, err := pool.Exec(ctx, `
				INSERT INTO ehr.medical_necessity (patient_id, dx_code)
				VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				patientID, dx,
			); err != nil {
				fmt.Fprintf(os.Stderr, "insert dx: %v\n", err)
				os.Exit(1)
			}
		}

		// Initial evaluation note; most land in the qualifying 15-30 minute
		// band, some deliberately outside it.
		noteCount++
		initialDur := int64(900 + rng.Intn(900))
		if rng.Intn(5) == 0 {
			initialDur = int64(300 + rng.Intn(500))
		}
		if _, err := pool.Exec(ctx, `
			INSERT INTO ehr.patient_note (patient_id, note_type, recorded_at, duration_seconds)
			VALUES ($1, $2, $3, $4)`,
			patientID, model.NoteTypeInitialEval,
			asOf.AddDate(0, 0, -40-rng.Intn(60)), initialDur,
		); err != nil {
			fmt.Fprintf(os.Stderr, "insert note: %v\n", err)
			os.Exit(1)
		}

		// Monthly interaction time: 0-5 care notes in the trailing month.
		for n := rng.Intn(6); n > 0; n-- {
			noteCount++
			if _, err := pool.Exec(ctx, `
				INSERT INTO ehr.patient_note (patient_id, note_type, recorded_at, duration_seconds)
				VALUES ($1, 'Care Coordination', $2, $3)`,
				patientID,
				asOf.AddDate(0, 0, -rng.Intn(28)).Add(time.Duration(rng.Intn(12))*time.Hour),
				int64(300+rng.Intn(1200)),
			); err != nil {
				fmt.Fprintf(os.Stderr, "insert note: %v\n", err)
				os.Exit(1)
			}
		}

		// Devices: glucose, blood pressure, or both.
		mods := []model.Modality{model.AllModalities[rng.Intn(2)]}
		if rng.Intn(3) == 0 {
			mods = model.AllModalities
		}
		for _, mod := range mods {
			deviceCount++
			var deviceID int64
			name := "Tenovi BGM"
			if mod == model.ModalityBloodPressure {
				name = "Omron BP7250"
			}
			err := pool.QueryRow(ctx, `
				INSERT INTO ehr.device (patient_id, device_name, modality)
				VALUES ($1, $2, $3)
				RETURNING device_id`,
				patientID, name, mod,
			).Scan(&deviceID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "insert device: %v\n", err)
				os.Exit(1)
			}

			// Readings on a random subset of the trailing 45 days; diligent
			// patients clear the 16-distinct-day thresholds, others do not.
			activeDays := 6 + rng.Intn(30)
			for d := 0; d < activeDays; d++ {
				day := asOf.AddDate(0, 0, -rng.Intn(45))
				at := day.Add(time.Duration(6+rng.Intn(14)) * time.Hour)
				readingRows = append(readingRows, []any{deviceID, string(mod), at})
			}
		}
	}

	copied, err := pool.CopyFrom(ctx,
		pgx.Identifier{"ehr", "device_reading"},
		[]string{"device_id", "modality", "recorded_at"},
		pgx.CopyFromRows(readingRows),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "copy readings: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d patients, %d devices, %d notes, %d readings (as of %s)\n",
		*patients, deviceCount, noteCount, copied, asOf.Format("2006-01-02"))
}
