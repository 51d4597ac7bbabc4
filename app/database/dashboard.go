package database

import (
	"fmt"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/shopspring/decimal"
)

// LedgerStats returns the headline numbers for the admin dashboard,
// computed from the billing records rather than the cached status column.
func (l *Ledger) LedgerStats() (*models.LedgerStats, error) {
	stats := &models.LedgerStats{}

	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM students WHERE is_active = true AND deleted_at IS NULL`,
	).Scan(&stats.TotalStudents)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	err = l.db.QueryRow(
		`SELECT COUNT(*) FROM enrollments WHERE status = 'active'`,
	).Scan(&stats.ActiveEnrollments)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}

	err = l.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(billed_amount), 0),
		        COALESCE(SUM(LEAST(amount_paid, billed_amount)), 0),
		        COALESCE(SUM(GREATEST(billed_amount - amount_paid, 0)), 0)
		 FROM billing_records`,
	).Scan(&stats.BillingRecords, &stats.TotalBilled, &stats.TotalCollected, &stats.TotalOutstanding)
	if err != nil {
		return nil, fmt.Errorf("failed to total billing records: %w", err)
	}

	err = l.db.QueryRow(
		`SELECT COUNT(*)
		 FROM billing_records br
		 JOIN due_dates d ON d.billing_record_id = br.id
		 WHERE d.due_date < CURRENT_DATE
		   AND br.amount_paid < br.billed_amount - 0.01`,
	).Scan(&stats.OverdueRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue records: %w", err)
	}

	if stats.TotalBilled.IsPositive() {
		rate, _ := stats.TotalCollected.Div(stats.TotalBilled).Mul(decimal.NewFromInt(100)).Float64()
		stats.CollectionRate = rate
	}
	return stats, nil
}
