package database

import (
	"database/sql"
	"fmt"
	"log"
)

// RunMigrations bootstraps the schema and applies incremental updates.
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	if err := createTables(db); err != nil {
		return err
	}

	// Classify legacy period rows that predate the kind column.
	if err := backfillPeriodKinds(db); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createTables(db *sql.DB) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT UNIQUE NOT NULL,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id),
			role_id UUID NOT NULL REFERENCES roles(id),
			PRIMARY KEY (user_id, role_id)
		)`,

		`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_no TEXT UNIQUE NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			gender VARCHAR(10),
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS academic_years (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT UNIQUE NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			is_current BOOLEAN DEFAULT false,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS periods (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			kind VARCHAR(20) NOT NULL DEFAULT '',
			nominal_amount NUMERIC NOT NULL DEFAULT 0,
			first_marker NUMERIC NOT NULL DEFAULT 0,
			second_marker NUMERIC NOT NULL DEFAULT 0,
			summer_marker NUMERIC NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_periods_kind ON periods (kind)`,

		`CREATE TABLE IF NOT EXISTS enrollments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_id UUID NOT NULL REFERENCES students(id),
			academic_year_id UUID NOT NULL REFERENCES academic_years(id),
			period_id UUID NOT NULL REFERENCES periods(id),
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// At most one active enrollment per (student, year, period).
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_enrollments_active
			ON enrollments (student_id, academic_year_id, period_id)
			WHERE status = 'active'`,

		`CREATE TABLE IF NOT EXISTS billing_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			enrollment_id UUID NOT NULL REFERENCES enrollments(id),
			billed_amount NUMERIC NOT NULL DEFAULT 0,
			amount_paid NUMERIC NOT NULL DEFAULT 0,
			remaining_balance NUMERIC NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_billing_records_enrollment ON billing_records (enrollment_id)`,

		`CREATE TABLE IF NOT EXISTS due_dates (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			billing_record_id UUID UNIQUE NOT NULL REFERENCES billing_records(id) ON DELETE CASCADE,
			due_date DATE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS promissory_notes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			reference TEXT UNIQUE NOT NULL,
			student_id UUID NOT NULL REFERENCES students(id),
			extended_due_date DATE NOT NULL,
			balance_snapshot TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Migration statement failed: %v", err)
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// backfillPeriodKinds classifies legacy rows whose identity was encoded by
// which single marker column held a positive amount. Ambiguous shapes are
// left unclassified; an all-zero shape is the valid unspecified sentinel.
func backfillPeriodKinds(db *sql.DB) error {
	query := `
		UPDATE periods SET
			kind = CASE
				WHEN first_marker > 0 AND second_marker <= 0 AND summer_marker <= 0 THEN 'first'
				WHEN second_marker > 0 AND first_marker <= 0 AND summer_marker <= 0 THEN 'second'
				WHEN summer_marker > 0 AND first_marker <= 0 AND second_marker <= 0 THEN 'summer'
				WHEN first_marker <= 0 AND second_marker <= 0 AND summer_marker <= 0 THEN 'unspecified'
				ELSE ''
			END,
			nominal_amount = GREATEST(first_marker, second_marker, summer_marker, 0)
		WHERE kind = ''
	`
	if _, err := db.Exec(query); err != nil {
		log.Printf("Failed to backfill period kinds: %v", err)
		return err
	}
	return nil
}
