package database_test

// Integration tests for the billing ledger. They need a real PostgreSQL
// instance and are skipped unless TEST_DATABASE_URL is set, e.g.
//
//	TEST_DATABASE_URL="postgres://postgres@localhost/accounting_test?sslmode=disable" go test ./...

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/XeinQt/Accounting-System-sub001/app/services"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLedger(t *testing.T) (*database.Ledger, *sql.DB) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db))

	cipher := services.NewAESAmountCipher("integration-test-secret")
	return database.NewLedger(db, zap.NewNop(), cipher), db
}

func createStudent(t *testing.T, db *sql.DB) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO students (student_no, first_name, last_name, is_active)
		 VALUES ($1, 'Test', 'Student', true) RETURNING id`,
		"S-"+uuid.NewString(),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createYear(t *testing.T, db *sql.DB) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO academic_years (name, start_date, end_date, is_active)
		 VALUES ($1, '2024-09-01', '2025-06-30', true) RETURNING id`,
		"Y-"+uuid.NewString(),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func activeEnrollmentCount(t *testing.T, db *sql.DB, studentID, yearID string) int {
	t.Helper()
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM enrollments
		 WHERE student_id = $1 AND academic_year_id = $2 AND status = 'active'`,
		studentID, yearID,
	).Scan(&n)
	require.NoError(t, err)
	return n
}

func recordState(t *testing.T, db *sql.DB, recordID string) (billed, paid, remaining decimal.Decimal, status string, due *time.Time) {
	t.Helper()
	var dueDate sql.NullTime
	err := db.QueryRow(
		`SELECT br.billed_amount, br.amount_paid, br.remaining_balance, br.status, d.due_date
		 FROM billing_records br
		 LEFT JOIN due_dates d ON d.billing_record_id = br.id
		 WHERE br.id = $1`,
		recordID,
	).Scan(&billed, &paid, &remaining, &status, &dueDate)
	require.NoError(t, err)
	if dueDate.Valid {
		due = &dueDate.Time
	}
	return
}

func TestEnrollmentUniqueness(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	periodID, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)

	first, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)
	second, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated saves must converge on one row")
	assert.Equal(t, 1, activeEnrollmentCount(t, db, studentID, yearID))
}

func TestReassignPeriod(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	firstPeriod, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	secondPeriod, err := ledger.ResolvePeriod("Second")
	require.NoError(t, err)

	firstEnrollment, err := ledger.GetOrCreateEnrollment(studentID, yearID, firstPeriod)
	require.NoError(t, err)

	require.NoError(t, ledger.ReassignPeriod(studentID, yearID, secondPeriod))

	assert.Equal(t, 1, activeEnrollmentCount(t, db, studentID, yearID))

	var status string
	require.NoError(t, db.QueryRow(
		`SELECT status FROM enrollments WHERE id = $1`, firstEnrollment,
	).Scan(&status))
	assert.Equal(t, "deactivated", status, "the old enrollment is deactivated, never deleted")

	// Reassigning back reactivates the original row.
	require.NoError(t, ledger.ReassignPeriod(studentID, yearID, firstPeriod))
	require.NoError(t, db.QueryRow(
		`SELECT status FROM enrollments WHERE id = $1`, firstEnrollment,
	).Scan(&status))
	assert.Equal(t, "active", status)
	assert.Equal(t, 1, activeEnrollmentCount(t, db, studentID, yearID))
}

func TestSaveBilling(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	periodID, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	enrollmentID, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)

	recordID, err := ledger.SaveBilling(enrollmentID, decimal.NewFromInt(3000))
	require.NoError(t, err)

	billed, paid, remaining, status, due := recordState(t, db, recordID)
	assert.True(t, billed.Equal(decimal.NewFromInt(3000)))
	assert.True(t, paid.IsZero())
	assert.True(t, remaining.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "unpaid", status)
	require.NotNil(t, due, "an unpaid billing save creates a due date")
	assert.WithinDuration(t, time.Now().AddDate(0, 2, 0), *due, 48*time.Hour)

	// A second save updates the same record instead of inserting another.
	again, err := ledger.SaveBilling(enrollmentID, decimal.NewFromInt(3500))
	require.NoError(t, err)
	assert.Equal(t, recordID, again)

	billed, _, remaining, _, _ = recordState(t, db, recordID)
	assert.True(t, billed.Equal(decimal.NewFromInt(3500)))
	assert.True(t, remaining.Equal(decimal.NewFromInt(3500)))
}

func TestApplyPayment_ProportionalAllocation(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	firstPeriod, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	secondPeriod, err := ledger.ResolvePeriod("Second")
	require.NoError(t, err)

	firstEnrollment, err := ledger.GetOrCreateEnrollment(studentID, yearID, firstPeriod)
	require.NoError(t, err)
	secondEnrollment, err := ledger.GetOrCreateEnrollment(studentID, yearID, secondPeriod)
	require.NoError(t, err)

	rec1, err := ledger.SaveBilling(firstEnrollment, decimal.NewFromInt(3000))
	require.NoError(t, err)
	rec2, err := ledger.SaveBilling(secondEnrollment, decimal.NewFromInt(2000))
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(4000), &yesterday, ""))

	_, paid1, rem1, status1, _ := recordState(t, db, rec1)
	_, paid2, rem2, status2, _ := recordState(t, db, rec2)
	assert.True(t, paid1.Equal(decimal.NewFromInt(2400)), "got %s", paid1)
	assert.True(t, paid2.Equal(decimal.NewFromInt(1600)), "got %s", paid2)
	assert.True(t, rem1.Equal(decimal.NewFromInt(600)))
	assert.True(t, rem2.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, "partial", status1)
	assert.Equal(t, "partial", status2)

	// Idempotence: the same cumulative amount yields the same allocation.
	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(4000), &yesterday, ""))
	_, paid1, _, _, _ = recordState(t, db, rec1)
	_, paid2, _, _, _ = recordState(t, db, rec2)
	assert.True(t, paid1.Equal(decimal.NewFromInt(2400)))
	assert.True(t, paid2.Equal(decimal.NewFromInt(1600)))

	// Paying more than the total billed caps at the total and clears due dates.
	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(9000), &yesterday, ""))
	_, paid1, rem1, status1, due1 := recordState(t, db, rec1)
	_, paid2, rem2, status2, due2 := recordState(t, db, rec2)
	assert.True(t, paid1.Equal(decimal.NewFromInt(3000)))
	assert.True(t, paid2.Equal(decimal.NewFromInt(2000)))
	assert.True(t, rem1.IsZero())
	assert.True(t, rem2.IsZero())
	assert.Equal(t, "paid", status1)
	assert.Equal(t, "paid", status2)
	assert.Nil(t, due1, "a fully paid record sheds its due date")
	assert.Nil(t, due2)
}

func TestApplyPayment_NoEnrollments(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	err := ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(100), nil, "")
	assert.ErrorIs(t, err, database.ErrNoBillingRecords)
}

func TestApplyPayment_CreatesNominalRecord(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	periodID, err := ledger.ResolvePeriod("Summer")
	require.NoError(t, err)
	enrollmentID, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)

	// Enrollment exists but was never billed; the payment must not be
	// silently dropped.
	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(50), nil, ""))

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM billing_records WHERE enrollment_id = $1`, enrollmentID,
	).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestResetPayments(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	periodID, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	enrollmentID, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)
	recordID, err := ledger.SaveBilling(enrollmentID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(400), &yesterday, ""))

	reset, err := ledger.ResetPayments(studentID, yearID)
	require.NoError(t, err)
	assert.True(t, reset)

	billed, paid, remaining, status, due := recordState(t, db, recordID)
	assert.True(t, billed.Equal(decimal.NewFromInt(1000)), "billed amount is untouched by a reset")
	assert.True(t, paid.IsZero())
	assert.True(t, remaining.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "unpaid", status)
	assert.Nil(t, due)
}

func TestResetPayments_NothingToReset(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	reset, err := ledger.ResetPayments(studentID, yearID)
	require.NoError(t, err, "an empty reset is a soft no-op, not an error")
	assert.False(t, reset)
}

func TestPromissoryEligibility(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	periodID, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	enrollmentID, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)
	recordID, err := ledger.SaveBilling(enrollmentID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(500), &yesterday, ""))

	candidates, err := ledger.EligibleForNotice(yearID, "")
	require.NoError(t, err)

	var found bool
	for _, c := range candidates {
		if c.BillingRecordID == recordID {
			found = true
			assert.Equal(t, models.StatusOverdue, c.Status, "candidates past their due date carry the overdue display label")
			assert.True(t, c.YearOutstanding.Equal(decimal.NewFromInt(500)))
		}
	}
	assert.True(t, found, "an overdue partial record must be eligible")

	// Paying in full removes the record from the selection.
	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(1000), &yesterday, ""))
	candidates, err = ledger.EligibleForNotice(yearID, "")
	require.NoError(t, err)
	for _, c := range candidates {
		assert.NotEqual(t, recordID, c.BillingRecordID)
	}

	_, _, _, _, due := recordState(t, db, recordID)
	assert.Nil(t, due)
}

func TestUnpaidBalanceBreakdown(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	firstPeriod, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	secondPeriod, err := ledger.ResolvePeriod("Second")
	require.NoError(t, err)

	e1, err := ledger.GetOrCreateEnrollment(studentID, yearID, firstPeriod)
	require.NoError(t, err)
	e2, err := ledger.GetOrCreateEnrollment(studentID, yearID, secondPeriod)
	require.NoError(t, err)

	_, err = ledger.SaveBilling(e1, decimal.NewFromInt(3000))
	require.NoError(t, err)
	_, err = ledger.SaveBilling(e2, decimal.NewFromInt(2000))
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyPayment(studentID, yearID, decimal.NewFromInt(4000), nil, ""))

	lines, err := ledger.UnpaidBalanceBreakdown(studentID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	total := decimal.Zero
	for _, line := range lines {
		assert.True(t, line.Amount.IsPositive())
		total = total.Add(line.Amount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(1000)), "got %s", total)
}

func TestPromissoryNoteRoundTrip(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	periodID, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	enrollmentID, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)
	_, err = ledger.SaveBilling(enrollmentID, decimal.NewFromInt(800))
	require.NoError(t, err)

	extended := time.Now().AddDate(0, 3, 0)
	note, err := ledger.CreatePromissoryNote(studentID, extended, "promise text")
	require.NoError(t, err)
	assert.True(t, note.BalanceSnapshot.Equal(decimal.NewFromInt(800)))

	notes, err := ledger.ListPromissoryNotes(studentID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].BalanceSnapshot.Equal(decimal.NewFromInt(800)),
		"the stored snapshot decrypts back to the amount at note creation")

	// Stored snapshots are opaque at rest.
	var sealed string
	require.NoError(t, db.QueryRow(
		`SELECT balance_snapshot FROM promissory_notes WHERE id = $1`, note.ID,
	).Scan(&sealed))
	assert.NotContains(t, sealed, "800")
}

func TestPeriodResolver(t *testing.T) {
	ledger, _ := newTestLedger(t)

	for _, label := range []string{"First", "Second", "Summer", "None"} {
		id, err := ledger.ResolvePeriod(label)
		require.NoError(t, err)

		again, err := ledger.ResolvePeriod(label)
		require.NoError(t, err)
		assert.Equal(t, id, again, "resolution is idempotent")

		got, err := ledger.PeriodLabel(id)
		require.NoError(t, err)
		assert.Equal(t, label, got)
	}

	_, err := ledger.ResolvePeriod("Third")
	assert.ErrorIs(t, err, database.ErrUnknownPeriod)
}

func TestLegacyPeriodBackfill(t *testing.T) {
	ledger, db := newTestLedger(t)

	// A legacy row identified only by its marker shape.
	var legacyID string
	require.NoError(t, db.QueryRow(
		`INSERT INTO periods (kind, first_marker, second_marker, summer_marker)
		 VALUES ('', 0, 1500, 0) RETURNING id`,
	).Scan(&legacyID))

	require.NoError(t, database.RunMigrations(db))

	label, err := ledger.PeriodLabel(legacyID)
	require.NoError(t, err)
	assert.Equal(t, "Second", label)

	var nominal decimal.Decimal
	require.NoError(t, db.QueryRow(
		`SELECT nominal_amount FROM periods WHERE id = $1`, legacyID,
	).Scan(&nominal))
	assert.True(t, nominal.Equal(decimal.NewFromInt(1500)), "the marker magnitude becomes the nominal amount")

	// An ambiguous shape stays unclassified.
	var ambiguousID string
	require.NoError(t, db.QueryRow(
		`INSERT INTO periods (kind, first_marker, second_marker, summer_marker)
		 VALUES ('', 10, 10, 0) RETURNING id`,
	).Scan(&ambiguousID))
	require.NoError(t, database.RunMigrations(db))

	label, err = ledger.PeriodLabel(ambiguousID)
	require.NoError(t, err)
	assert.Equal(t, "", label)
}

func TestStudentQueries(t *testing.T) {
	_, db := newTestLedger(t)

	student := &models.Student{
		StudentNo: "S-" + uuid.NewString(),
		FirstName: "Query",
		LastName:  "Roundtrip",
		Gender:    "F",
	}
	require.NoError(t, database.CreateStudent(db, student))
	require.NotEmpty(t, student.ID)

	got, err := database.GetStudentByID(db, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StudentNo, got.StudentNo)
	assert.Equal(t, "Query Roundtrip", got.FullName())

	listed, err := database.GetStudents(db, database.StudentFilters{
		Search: student.StudentNo,
		Status: "active",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, student.ID, listed[0].ID)
}

func TestDeleteBilling(t *testing.T) {
	ledger, db := newTestLedger(t)
	studentID := createStudent(t, db)
	yearID := createYear(t, db)

	periodID, err := ledger.ResolvePeriod("First")
	require.NoError(t, err)
	enrollmentID, err := ledger.GetOrCreateEnrollment(studentID, yearID, periodID)
	require.NoError(t, err)
	_, err = ledger.SaveBilling(enrollmentID, decimal.NewFromInt(100))
	require.NoError(t, err)

	found, err := ledger.DeleteBilling(studentID, yearID, "")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = ledger.DeleteBilling(studentID, yearID, "")
	require.NoError(t, err, "deleting nothing is a no-op, not an error")
	assert.False(t, found)

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM billing_records WHERE enrollment_id = $1`, enrollmentID,
	).Scan(&n))
	assert.Equal(t, 0, n)
}
