package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApplyPayment records a new cumulative paid amount for a student's school
// year and redistributes it proportionally across every billing record
// belonging to the student's active enrollments.
//
// The gather, compute and persist steps run in one transaction with the
// rows locked, so concurrent payments for the same student and year
// serialize instead of double-allocating. The paid total is capped at the
// total billed, per-record statuses are rederived from the amounts, and a
// supplied due date is applied to the first gathered record while the
// aggregate is not fully paid (and cleared once it is). The reported
// status argument is advisory only and never trusted.
func (l *Ledger) ApplyPayment(studentID, yearID string, cumulativePaid decimal.Decimal, dueDate *time.Time, reported models.PaymentStatus) error {
	var due sql.NullTime
	if dueDate != nil {
		due = sql.NullTime{Time: *dueDate, Valid: true}
	}

	return l.runDualPath("apply_payment",
		func() error {
			_, err := l.db.Exec(`SELECT sp_apply_payment($1, $2, $3, $4)`,
				studentID, yearID, cumulativePaid, due)
			return err
		},
		func() error {
			return l.applyPaymentTx(studentID, yearID, cumulativePaid, dueDate, reported)
		},
	)
}

type gatheredRecord struct {
	id     string
	billed decimal.Decimal
}

func (l *Ledger) applyPaymentTx(studentID, yearID string, cumulativePaid decimal.Decimal, dueDate *time.Time, reported models.PaymentStatus) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	enrollmentIDs, periodIDs, err := lockActiveEnrollments(tx, studentID, yearID)
	if err != nil {
		return err
	}
	if len(enrollmentIDs) == 0 {
		return ErrNoBillingRecords
	}

	records, err := lockBillingRecords(tx, enrollmentIDs)
	if err != nil {
		return err
	}

	// A payment against an enrollment that was never billed must not be
	// silently dropped: materialize one record from the periods' nominal
	// amounts and allocate against it.
	if len(records) == 0 {
		rec, err := createNominalRecord(tx, enrollmentIDs[0], periodIDs)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	billed := make([]decimal.Decimal, len(records))
	for i, r := range records {
		billed[i] = r.billed
	}
	shares := models.AllocateProportional(billed, cumulativePaid)

	for i, r := range records {
		s := shares[i]
		_, err := tx.Exec(
			`UPDATE billing_records
			 SET amount_paid = $2, remaining_balance = $3, status = $4, updated_at = NOW()
			 WHERE id = $1`,
			r.id, s.Paid, s.Remaining, string(s.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to persist allocation: %w", err)
		}

		// A record that just became fully paid sheds its due date.
		if s.Status == models.StatusPaid {
			if _, err := tx.Exec(`DELETE FROM due_dates WHERE billing_record_id = $1`, r.id); err != nil {
				return fmt.Errorf("failed to clear due date: %w", err)
			}
		}
	}

	totalBilled := decimal.Zero
	totalPaid := decimal.Zero
	for i := range records {
		totalBilled = totalBilled.Add(records[i].billed)
		totalPaid = totalPaid.Add(shares[i].Paid)
	}
	aggregate := models.DeriveStatus(totalPaid, totalBilled)

	switch {
	case aggregate == models.StatusPaid:
		if _, err := tx.Exec(`DELETE FROM due_dates WHERE billing_record_id = $1`, records[0].id); err != nil {
			return fmt.Errorf("failed to clear due date: %w", err)
		}
	case dueDate != nil:
		if err := upsertDueDate(tx, records[0].id, *dueDate); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}

	if reported != "" && reported != aggregate {
		l.log.Debug("caller-reported status differs from derived status",
			zap.String("reported", string(reported)),
			zap.String("derived", string(aggregate)))
	}
	l.log.Info("applied payment",
		zap.String("student_id", studentID),
		zap.String("academic_year_id", yearID),
		zap.String("cumulative_paid", cumulativePaid.String()),
		zap.Int("records", len(records)),
		zap.String("status", string(aggregate)))
	return nil
}

// ResetPayments zeroes the paid amounts on every billing record of the
// student's year: balances return to the billed amounts, statuses to
// unpaid, due dates are cleared. Billed amounts are untouched. Returns
// false, without error, when the student has no records to reset.
func (l *Ledger) ResetPayments(studentID, yearID string) (bool, error) {
	var reset bool
	err := l.runDualPath("reset_payments",
		func() error {
			return l.db.QueryRow(`SELECT sp_reset_payments($1, $2)`, studentID, yearID).Scan(&reset)
		},
		func() error {
			var err error
			reset, err = l.resetPaymentsTx(studentID, yearID)
			return err
		},
	)
	if err != nil {
		return false, err
	}
	return reset, nil
}

func (l *Ledger) resetPaymentsTx(studentID, yearID string) (bool, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	enrollmentIDs, _, err := lockActiveEnrollments(tx, studentID, yearID)
	if err != nil {
		return false, err
	}
	if len(enrollmentIDs) == 0 {
		return false, nil
	}

	records, err := lockBillingRecords(tx, enrollmentIDs)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.id
	}

	_, err = tx.Exec(
		`UPDATE billing_records
		 SET amount_paid = 0, remaining_balance = billed_amount, status = 'unpaid', updated_at = NOW()
		 WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return false, fmt.Errorf("failed to reset billing records: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM due_dates WHERE billing_record_id = ANY($1)`, pq.Array(ids)); err != nil {
		return false, fmt.Errorf("failed to clear due dates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit reset: %w", err)
	}

	l.log.Info("reset payments",
		zap.String("student_id", studentID),
		zap.String("academic_year_id", yearID),
		zap.Int("records", len(records)))
	return true, nil
}

func lockActiveEnrollments(tx *sql.Tx, studentID, yearID string) ([]string, []string, error) {
	rows, err := tx.Query(
		`SELECT id, period_id FROM enrollments
		 WHERE student_id = $1 AND academic_year_id = $2 AND status = 'active'
		 ORDER BY created_at ASC
		 FOR UPDATE`,
		studentID, yearID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to gather enrollments: %w", err)
	}
	defer rows.Close()

	var enrollmentIDs, periodIDs []string
	for rows.Next() {
		var id, periodID string
		if err := rows.Scan(&id, &periodID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollmentIDs = append(enrollmentIDs, id)
		periodIDs = append(periodIDs, periodID)
	}
	return enrollmentIDs, periodIDs, rows.Err()
}

func lockBillingRecords(tx *sql.Tx, enrollmentIDs []string) ([]gatheredRecord, error) {
	rows, err := tx.Query(
		`SELECT id, billed_amount FROM billing_records
		 WHERE enrollment_id = ANY($1)
		 ORDER BY created_at ASC
		 FOR UPDATE`,
		pq.Array(enrollmentIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to gather billing records: %w", err)
	}
	defer rows.Close()

	var records []gatheredRecord
	for rows.Next() {
		var r gatheredRecord
		if err := rows.Scan(&r.id, &r.billed); err != nil {
			return nil, fmt.Errorf("failed to scan billing record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func createNominalRecord(tx *sql.Tx, enrollmentID string, periodIDs []string) (gatheredRecord, error) {
	var nominal decimal.Decimal
	err := tx.QueryRow(
		`SELECT COALESCE(SUM(nominal_amount), 0) FROM periods WHERE id = ANY($1)`,
		pq.Array(periodIDs),
	).Scan(&nominal)
	if err != nil {
		return gatheredRecord{}, fmt.Errorf("failed to sum nominal amounts: %w", err)
	}

	rec := gatheredRecord{billed: nominal}
	err = tx.QueryRow(
		`INSERT INTO billing_records (enrollment_id, billed_amount, amount_paid, remaining_balance, status)
		 VALUES ($1, $2, 0, $2, 'unpaid') RETURNING id`,
		enrollmentID, nominal,
	).Scan(&rec.id)
	if err != nil {
		return gatheredRecord{}, fmt.Errorf("failed to create billing record: %w", err)
	}
	return rec, nil
}
