package billing

import (
	"errors"
	"time"

	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// EnrollRequest binds a student to an academic year and period.
type EnrollRequest struct {
	StudentID      string `json:"student_id"`
	AcademicYearID string `json:"academic_year_id"`
	Period         string `json:"period"`
}

// SaveBillingRequest sets the billed amount for an enrollment.
type SaveBillingRequest struct {
	StudentID      string          `json:"student_id"`
	AcademicYearID string          `json:"academic_year_id"`
	Period         string          `json:"period"`
	Amount         decimal.Decimal `json:"amount"`
}

// PaymentRequest records the student's cumulative paid amount for a year.
type PaymentRequest struct {
	StudentID      string             `json:"student_id"`
	AcademicYearID string             `json:"academic_year_id"`
	AmountPaid     decimal.Decimal    `json:"amount_paid"`
	DueDate        *models.CustomTime `json:"due_date,omitempty"`
	Status         string             `json:"status,omitempty"`
}

func dueDateArg(ct *models.CustomTime) *time.Time {
	if ct == nil || ct.Time.IsZero() {
		return nil
	}
	return &ct.Time
}

// EnrollStudentAPI creates or reactivates an enrollment
func EnrollStudentAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StudentID == "" || req.AcademicYearID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_id and academic_year_id are required")
	}

	periodID, err := ledger.ResolvePeriod(req.Period)
	if err != nil {
		if errors.Is(err, database.ErrUnknownPeriod) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown period: "+req.Period)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to resolve period")
	}

	enrollmentID, err := ledger.GetOrCreateEnrollment(req.StudentID, req.AcademicYearID, periodID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to save enrollment")
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"enrollment_id": enrollmentID,
		"period_id":     periodID,
	})
}

// ReassignPeriodAPI moves a student's period assignment for a year
func ReassignPeriodAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StudentID == "" || req.AcademicYearID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_id and academic_year_id are required")
	}

	periodID, err := ledger.ResolvePeriod(req.Period)
	if err != nil {
		if errors.Is(err, database.ErrUnknownPeriod) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown period: "+req.Period)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to resolve period")
	}

	if err := ledger.ReassignPeriod(req.StudentID, req.AcademicYearID, periodID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to reassign period")
	}

	return c.JSON(fiber.Map{"success": true, "period_id": periodID})
}

// SaveBillingAPI creates or updates the billed amount for an enrollment
func SaveBillingAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	var req SaveBillingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StudentID == "" || req.AcademicYearID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_id and academic_year_id are required")
	}
	if req.Amount.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
	}

	periodID, err := ledger.ResolvePeriod(req.Period)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown period: "+req.Period)
	}

	enrollmentID, err := ledger.GetOrCreateEnrollment(req.StudentID, req.AcademicYearID, periodID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to save enrollment")
	}

	recordID, err := ledger.SaveBilling(enrollmentID, req.Amount)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to save billing record")
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"enrollment_id":     enrollmentID,
		"billing_record_id": recordID,
	})
}

// DeleteBillingAPI removes billing records for a student's year
func DeleteBillingAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	studentID := c.Query("student_id")
	yearID := c.Query("academic_year_id")
	period := c.Query("period")
	if studentID == "" || yearID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_id and academic_year_id are required")
	}

	periodID := ""
	if period != "" {
		var err error
		periodID, err = ledger.ResolvePeriod(period)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown period: "+period)
		}
	}

	found, err := ledger.DeleteBilling(studentID, yearID, periodID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete billing records")
	}

	return c.JSON(fiber.Map{"success": true, "found": found})
}

// ApplyPaymentAPI records a cumulative paid amount and redistributes it
func ApplyPaymentAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StudentID == "" || req.AcademicYearID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_id and academic_year_id are required")
	}
	if req.AmountPaid.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "amount_paid must not be negative")
	}

	err := ledger.ApplyPayment(req.StudentID, req.AcademicYearID, req.AmountPaid,
		dueDateArg(req.DueDate), models.PaymentStatus(req.Status))
	if err != nil {
		if errors.Is(err, database.ErrNoBillingRecords) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"success": false,
				"error":   "No billing records to pay",
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to apply payment")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ResetPaymentsAPI zeroes the paid amounts for a student's year
func ResetPaymentsAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StudentID == "" || req.AcademicYearID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_id and academic_year_id are required")
	}

	reset, err := ledger.ResetPayments(req.StudentID, req.AcademicYearID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to reset payments")
	}

	return c.JSON(fiber.Map{"success": true, "reset": reset})
}

// BalanceBreakdownAPI lists a student's outstanding balance per year and period
func BalanceBreakdownAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	lines, err := ledger.UnpaidBalanceBreakdown(c.Params("studentID"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch balance breakdown")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"breakdown": lines,
		"count":     len(lines),
	})
}

// LedgerStatsAPI returns the dashboard numbers for the billing ledger
func LedgerStatsAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	stats, err := ledger.LedgerStats()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch ledger stats")
	}

	return c.JSON(fiber.Map{"success": true, "stats": stats})
}
