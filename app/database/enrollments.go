package database

import (
	"database/sql"
	"fmt"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"go.uber.org/zap"
)

// GetOrCreateEnrollment returns the enrollment id binding a student to a
// school year and period. An active row is returned as is, a deactivated
// row is reactivated, and only when neither exists is a new row inserted,
// so repeated saves never leave duplicate enrollments.
func (l *Ledger) GetOrCreateEnrollment(studentID, yearID, periodID string) (string, error) {
	var id string
	err := l.runDualPath("get_or_create_enrollment",
		func() error {
			return l.db.QueryRow(
				`SELECT sp_get_or_create_enrollment($1, $2, $3)`,
				studentID, yearID, periodID,
			).Scan(&id)
		},
		func() error {
			tx, err := l.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin transaction: %w", err)
			}
			defer tx.Rollback()

			id, err = getOrCreateEnrollmentTx(tx, studentID, yearID, periodID)
			if err != nil {
				return err
			}
			return tx.Commit()
		},
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func getOrCreateEnrollmentTx(tx *sql.Tx, studentID, yearID, periodID string) (string, error) {
	var (
		id     string
		status string
	)
	err := tx.QueryRow(
		`SELECT id, status FROM enrollments
		 WHERE student_id = $1 AND academic_year_id = $2 AND period_id = $3
		 ORDER BY status = 'active' DESC, created_at ASC
		 LIMIT 1
		 FOR UPDATE`,
		studentID, yearID, periodID,
	).Scan(&id, &status)

	switch {
	case err == nil:
		if models.EnrollmentStatus(status) == models.EnrollmentActive {
			return id, nil
		}
		// Reactivate instead of inserting a duplicate row.
		if _, err := tx.Exec(
			`UPDATE enrollments SET status = 'active', updated_at = NOW() WHERE id = $1`,
			id,
		); err != nil {
			return "", fmt.Errorf("failed to reactivate enrollment: %w", err)
		}
		return id, nil

	case err != sql.ErrNoRows:
		return "", fmt.Errorf("failed to look up enrollment: %w", err)
	}

	err = tx.QueryRow(
		`INSERT INTO enrollments (student_id, academic_year_id, period_id, status)
		 VALUES ($1, $2, $3, 'active') RETURNING id`,
		studentID, yearID, periodID,
	).Scan(&id)
	if isUniqueViolation(err) {
		// Lost a race with a concurrent caller; converge on its row.
		if scanErr := tx.QueryRow(
			`SELECT id FROM enrollments
			 WHERE student_id = $1 AND academic_year_id = $2 AND period_id = $3 AND status = 'active'`,
			studentID, yearID, periodID,
		).Scan(&id); scanErr != nil {
			return "", ErrDuplicateEnrollment
		}
		return id, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return id, nil
}

// ReassignPeriod moves the student's period assignment for a school year:
// the enrollment for the new period is upserted or reactivated, then every
// other active enrollment for the same (student, year) is deactivated.
// The whole sequence is atomic; afterwards at most one enrollment is
// active for the pair.
func (l *Ledger) ReassignPeriod(studentID, yearID, newPeriodID string) error {
	return l.runDualPath("reassign_period",
		func() error {
			_, err := l.db.Exec(`SELECT sp_reassign_period($1, $2, $3)`, studentID, yearID, newPeriodID)
			return err
		},
		func() error {
			return l.reassignPeriodTx(studentID, yearID, newPeriodID)
		},
	)
}

func (l *Ledger) reassignPeriodTx(studentID, yearID, newPeriodID string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := getOrCreateEnrollmentTx(tx, studentID, yearID, newPeriodID)
	if err != nil {
		return err
	}

	res, err := tx.Exec(
		`UPDATE enrollments SET status = 'deactivated', updated_at = NOW()
		 WHERE student_id = $1 AND academic_year_id = $2 AND status = 'active' AND id <> $3`,
		studentID, yearID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate previous enrollments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reassignment: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		l.log.Info("reassigned student period",
			zap.String("student_id", studentID),
			zap.String("academic_year_id", yearID),
			zap.Int64("deactivated", n))
	}
	return nil
}
