package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EligibleForNotice selects the billing records that qualify for a
// promissory notice: active student and enrollment, a due date that has
// passed, a recomputed status other than paid, and an outstanding
// aggregate balance across all of the student's records for the year.
// An empty periodID means every period. Results are ordered by due date,
// ties broken by student id.
func (l *Ledger) EligibleForNotice(yearID, periodID string) ([]models.NoticeCandidate, error) {
	var candidates []models.NoticeCandidate
	err := l.runDualPath("promissory_eligible",
		func() error {
			rows, err := l.db.Query(`SELECT * FROM fn_promissory_eligible($1, $2)`, yearID, periodID)
			if err != nil {
				return err
			}
			candidates, err = scanNoticeCandidates(rows)
			return err
		},
		func() error {
			var err error
			candidates, err = l.eligibleForNoticeQuery(yearID, periodID)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	outstanding, err := l.yearOutstandingByStudent(yearID)
	if err != nil {
		return nil, err
	}

	// Recompute status and apply the cross-record balance check; stored
	// statuses are never trusted. The reported status is the display one,
	// so a past-due record shows as overdue, not partial.
	now := time.Now()
	eligible := candidates[:0]
	for _, c := range candidates {
		rec := models.BillingRecord{
			BilledAmount: c.BilledAmount,
			AmountPaid:   c.AmountPaid,
			DueDate:      &c.DueDate,
		}
		if rec.DerivedStatus() == models.StatusPaid {
			continue
		}
		c.YearOutstanding = outstanding[c.StudentID]
		if !c.YearOutstanding.IsPositive() {
			continue
		}
		c.Status = rec.DisplayStatus(now)
		eligible = append(eligible, c)
	}
	return eligible, nil
}

func (l *Ledger) eligibleForNoticeQuery(yearID, periodID string) ([]models.NoticeCandidate, error) {
	query := `
		SELECT br.id, e.student_id, s.first_name || ' ' || s.last_name,
		       br.billed_amount, br.amount_paid, d.due_date
		FROM billing_records br
		JOIN enrollments e ON br.enrollment_id = e.id
		JOIN students s ON e.student_id = s.id
		JOIN due_dates d ON d.billing_record_id = br.id
		WHERE e.academic_year_id = $1
		  AND e.status = 'active'
		  AND s.is_active = true AND s.deleted_at IS NULL
		  AND d.due_date <= CURRENT_DATE
	`
	args := []interface{}{yearID}
	if periodID != "" {
		query += ` AND e.period_id = $2`
		args = append(args, periodID)
	}
	query += ` ORDER BY d.due_date ASC, e.student_id ASC`

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notice candidates: %w", err)
	}
	return scanNoticeCandidates(rows)
}

func scanNoticeCandidates(rows *sql.Rows) ([]models.NoticeCandidate, error) {
	defer rows.Close()

	var candidates []models.NoticeCandidate
	for rows.Next() {
		var c models.NoticeCandidate
		err := rows.Scan(&c.BillingRecordID, &c.StudentID, &c.StudentName,
			&c.BilledAmount, &c.AmountPaid, &c.DueDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notice candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (l *Ledger) yearOutstandingByStudent(yearID string) (map[string]decimal.Decimal, error) {
	rows, err := l.db.Query(
		`SELECT e.student_id, COALESCE(SUM(GREATEST(br.billed_amount - br.amount_paid, 0)), 0)
		 FROM billing_records br
		 JOIN enrollments e ON br.enrollment_id = e.id
		 WHERE e.academic_year_id = $1 AND e.status = 'active'
		 GROUP BY e.student_id`,
		yearID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate outstanding balances: %w", err)
	}
	defer rows.Close()

	outstanding := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			studentID string
			amount    decimal.Decimal
		)
		if err := rows.Scan(&studentID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan outstanding balance: %w", err)
		}
		outstanding[studentID] = amount
	}
	return outstanding, rows.Err()
}

// UnpaidBalanceBreakdown lists, per academic year and period, what a
// student still owes. Fully paid enrollments and zero or negative
// remainders are skipped.
func (l *Ledger) UnpaidBalanceBreakdown(studentID string) ([]models.BalanceLine, error) {
	var lines []models.BalanceLine
	err := l.runDualPath("balance_breakdown",
		func() error {
			rows, err := l.db.Query(`SELECT * FROM fn_balance_breakdown($1)`, studentID)
			if err != nil {
				return err
			}
			lines, err = scanBalanceLines(rows)
			return err
		},
		func() error {
			rows, err := l.db.Query(
				`SELECT ay.name, p.kind, p.first_marker, p.second_marker, p.summer_marker,
				        br.billed_amount, br.amount_paid
				 FROM billing_records br
				 JOIN enrollments e ON br.enrollment_id = e.id
				 JOIN academic_years ay ON e.academic_year_id = ay.id
				 JOIN periods p ON e.period_id = p.id
				 WHERE e.student_id = $1
				 ORDER BY ay.start_date ASC, br.created_at ASC`,
				studentID,
			)
			if err != nil {
				return fmt.Errorf("failed to query balance breakdown: %w", err)
			}
			lines, err = scanBalanceLines(rows)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func scanBalanceLines(rows *sql.Rows) ([]models.BalanceLine, error) {
	defer rows.Close()

	var lines []models.BalanceLine
	for rows.Next() {
		var (
			yearName              string
			kind                  string
			first, second, summer decimal.Decimal
			billed, paid          decimal.Decimal
		)
		if err := rows.Scan(&yearName, &kind, &first, &second, &summer, &billed, &paid); err != nil {
			return nil, fmt.Errorf("failed to scan balance line: %w", err)
		}

		if models.DeriveStatus(paid, billed) == models.StatusPaid {
			continue
		}
		amount := billed.Sub(paid)
		if !amount.IsPositive() {
			continue
		}

		label := models.PeriodKindLabel(models.PeriodKind(kind))
		if label == "" {
			if shaped, ok := models.ClassifyMarkers(first, second, summer); ok {
				label = models.PeriodKindLabel(shaped)
			}
		}

		lines = append(lines, models.BalanceLine{
			AcademicYearLabel: yearName,
			PeriodLabel:       label,
			Amount:            amount,
		})
	}
	return lines, rows.Err()
}

// CreatePromissoryNote snapshots the student's current outstanding balance
// into an immutable note with an extended due date. The balance snapshot
// is stored encrypted through the amount cipher.
func (l *Ledger) CreatePromissoryNote(studentID string, extendedDueDate time.Time, body string) (*models.PromissoryNote, error) {
	if l.cipher == nil {
		return nil, fmt.Errorf("no amount cipher configured")
	}

	lines, err := l.UnpaidBalanceBreakdown(studentID)
	if err != nil {
		return nil, err
	}
	balance := decimal.Zero
	for _, line := range lines {
		balance = balance.Add(line.Amount)
	}

	sealed, err := l.cipher.EncryptAmount(balance, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt balance snapshot: %w", err)
	}

	note := &models.PromissoryNote{
		Reference:       uuid.NewString(),
		StudentID:       studentID,
		ExtendedDueDate: models.CustomTime{Time: extendedDueDate},
		BalanceSnapshot: balance,
		Body:            body,
	}
	err = l.runDualPath("create_promissory_note",
		func() error {
			return l.db.QueryRow(
				`SELECT * FROM sp_create_promissory_note($1, $2, $3, $4, $5)`,
				note.Reference, studentID, extendedDueDate, sealed, body,
			).Scan(&note.ID, &note.CreatedAt)
		},
		func() error {
			err := l.db.QueryRow(
				`INSERT INTO promissory_notes (reference, student_id, extended_due_date, balance_snapshot, body)
				 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
				note.Reference, studentID, extendedDueDate, sealed, body,
			).Scan(&note.ID, &note.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert promissory note: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	l.log.Info("created promissory note",
		zap.String("student_id", studentID),
		zap.String("reference", note.Reference))
	return note, nil
}

// ListPromissoryNotes returns a student's notes, newest first. Balance
// snapshots that cannot be decrypted are skipped (reported as zero), not
// treated as a query failure.
func (l *Ledger) ListPromissoryNotes(studentID string) ([]*models.PromissoryNote, error) {
	var notes []*models.PromissoryNote
	err := l.runDualPath("list_promissory_notes",
		func() error {
			rows, err := l.db.Query(`SELECT * FROM fn_list_promissory_notes($1)`, studentID)
			if err != nil {
				return err
			}
			notes, err = l.scanPromissoryNotes(rows)
			return err
		},
		func() error {
			rows, err := l.db.Query(
				`SELECT id, reference, student_id, extended_due_date, balance_snapshot, body, created_at
				 FROM promissory_notes
				 WHERE student_id = $1
				 ORDER BY created_at DESC`,
				studentID,
			)
			if err != nil {
				return fmt.Errorf("failed to query promissory notes: %w", err)
			}
			notes, err = l.scanPromissoryNotes(rows)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (l *Ledger) scanPromissoryNotes(rows *sql.Rows) ([]*models.PromissoryNote, error) {
	defer rows.Close()

	var notes []*models.PromissoryNote
	for rows.Next() {
		note := &models.PromissoryNote{}
		var sealed string
		err := rows.Scan(&note.ID, &note.Reference, &note.StudentID,
			&note.ExtendedDueDate, &sealed, &note.Body, &note.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promissory note: %w", err)
		}

		if l.cipher != nil {
			amount, err := l.cipher.DecryptAmount(sealed, note.StudentID)
			if err != nil {
				l.log.Warn("skipping unreadable balance snapshot",
					zap.String("note_id", note.ID),
					zap.Error(err))
			} else {
				note.BalanceSnapshot = amount
			}
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
