package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaveBilling creates or updates the billed amount for one enrollment and
// returns the billing record id.
//
// The existing record is located by the enrollment's business key
// (student, year, period) first and only then by the foreign key, so
// duplicate rows left behind by older versions of the system are updated
// instead of multiplied. An update sets remainingBalance back to the new
// billed amount without resetting amountPaid; the due date is refreshed to
// today plus the grace interval only while the record is not fully paid.
func (l *Ledger) SaveBilling(enrollmentID string, amount decimal.Decimal) (string, error) {
	var id string
	err := l.runDualPath("save_billing",
		func() error {
			return l.db.QueryRow(`SELECT sp_save_billing($1, $2)`, enrollmentID, amount).Scan(&id)
		},
		func() error {
			var err error
			id, err = l.saveBillingTx(enrollmentID, amount)
			return err
		},
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (l *Ledger) saveBillingTx(enrollmentID string, amount decimal.Decimal) (string, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var studentID, yearID, periodID string
	err = tx.QueryRow(
		`SELECT student_id, academic_year_id, period_id FROM enrollments WHERE id = $1`,
		enrollmentID,
	).Scan(&studentID, &yearID, &periodID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("enrollment %s not found", enrollmentID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up enrollment: %w", err)
	}

	// Business key first, foreign key as the fallback.
	var (
		recordID string
		paid     decimal.Decimal
	)
	err = tx.QueryRow(
		`SELECT br.id, br.amount_paid FROM billing_records br
		 JOIN enrollments e ON br.enrollment_id = e.id
		 WHERE e.student_id = $1 AND e.academic_year_id = $2 AND e.period_id = $3
		 ORDER BY br.created_at ASC
		 LIMIT 1
		 FOR UPDATE OF br`,
		studentID, yearID, periodID,
	).Scan(&recordID, &paid)
	if err == sql.ErrNoRows {
		err = tx.QueryRow(
			`SELECT id, amount_paid FROM billing_records
			 WHERE enrollment_id = $1
			 ORDER BY created_at ASC LIMIT 1
			 FOR UPDATE`,
			enrollmentID,
		).Scan(&recordID, &paid)
	}

	switch {
	case err == nil:
		// Paid can never exceed the new billed amount.
		if paid.GreaterThan(amount) {
			paid = amount
		}
		status := models.DeriveStatus(paid, amount)
		_, err = tx.Exec(
			`UPDATE billing_records
			 SET billed_amount = $2, amount_paid = $3, remaining_balance = $2,
			     status = $4, updated_at = NOW()
			 WHERE id = $1`,
			recordID, amount, paid, string(status),
		)
		if err != nil {
			return "", fmt.Errorf("failed to update billing record: %w", err)
		}

		if status == models.StatusPaid {
			if _, err := tx.Exec(`DELETE FROM due_dates WHERE billing_record_id = $1`, recordID); err != nil {
				return "", fmt.Errorf("failed to clear due date: %w", err)
			}
		} else if err := upsertDueDate(tx, recordID, graceDueDate(time.Now())); err != nil {
			return "", err
		}

	case err == sql.ErrNoRows:
		err = tx.QueryRow(
			`INSERT INTO billing_records (enrollment_id, billed_amount, amount_paid, remaining_balance, status)
			 VALUES ($1, $2, 0, $2, 'unpaid') RETURNING id`,
			enrollmentID, amount,
		).Scan(&recordID)
		if err != nil {
			return "", fmt.Errorf("failed to insert billing record: %w", err)
		}
		if err := upsertDueDate(tx, recordID, graceDueDate(time.Now())); err != nil {
			return "", err
		}

	default:
		return "", fmt.Errorf("failed to look up billing record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit billing save: %w", err)
	}

	l.log.Info("saved billing record",
		zap.String("billing_record_id", recordID),
		zap.String("enrollment_id", enrollmentID),
		zap.String("billed_amount", amount.String()))
	return recordID, nil
}

func upsertDueDate(tx *sql.Tx, recordID string, due time.Time) error {
	_, err := tx.Exec(
		`INSERT INTO due_dates (billing_record_id, due_date)
		 VALUES ($1, $2)
		 ON CONFLICT (billing_record_id) DO UPDATE SET due_date = EXCLUDED.due_date, updated_at = NOW()`,
		recordID, due,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert due date: %w", err)
	}
	return nil
}

// DeleteBilling removes the billing records tied to a student's
// enrollments for a year. An empty periodID removes the records of every
// period. Returns false when nothing existed; that is a no-op, not an
// error. Due dates go with their records.
func (l *Ledger) DeleteBilling(studentID, yearID, periodID string) (bool, error) {
	var found bool
	err := l.runDualPath("delete_billing",
		func() error {
			period := sql.NullString{String: periodID, Valid: periodID != ""}
			return l.db.QueryRow(`SELECT sp_delete_billing($1, $2, $3)`, studentID, yearID, period).Scan(&found)
		},
		func() error {
			var err error
			found, err = l.deleteBillingDirect(studentID, yearID, periodID)
			return err
		},
	)
	if err != nil {
		return false, err
	}

	if found {
		l.log.Info("deleted billing records",
			zap.String("student_id", studentID),
			zap.String("academic_year_id", yearID))
	}
	return found, nil
}

func (l *Ledger) deleteBillingDirect(studentID, yearID, periodID string) (bool, error) {
	query := `
		DELETE FROM billing_records
		WHERE enrollment_id IN (
			SELECT id FROM enrollments
			WHERE student_id = $1 AND academic_year_id = $2
	`
	args := []interface{}{studentID, yearID}
	if periodID != "" {
		query += ` AND period_id = $3`
		args = append(args, periodID)
	}
	query += `)`

	res, err := l.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete billing records: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}
