package promissory

import (
	"database/sql"

	"github.com/XeinQt/Accounting-System-sub001/app/config"
	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/XeinQt/Accounting-System-sub001/app/services"
	"github.com/gofiber/fiber/v2"
)

// CreateNoteRequest issues a promissory note for a student.
type CreateNoteRequest struct {
	StudentID       string            `json:"student_id"`
	ExtendedDueDate models.CustomTime `json:"extended_due_date"`
}

// EligibleAPI lists billing records eligible for a promissory notice
func EligibleAPI(c *fiber.Ctx, notices *services.NoticeService) error {
	yearID := c.Query("academic_year_id")
	if yearID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "academic_year_id is required")
	}

	candidates, err := notices.Candidates(yearID, c.Query("period"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch eligible records")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// CreateNoteAPI issues an immutable promissory note
func CreateNoteAPI(c *fiber.Ctx, notices *services.NoticeService) error {
	var req CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.StudentID == "" || req.ExtendedDueDate.Time.IsZero() {
		return fiber.NewError(fiber.StatusBadRequest, "student_id and extended_due_date are required")
	}

	student, err := database.GetStudentByID(config.GetDB(), req.StudentID)
	if err == sql.ErrNoRows {
		return fiber.NewError(fiber.StatusNotFound, "Student not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch student")
	}

	note, err := notices.IssueNote(student.ID, student.FullName(), req.ExtendedDueDate.Time)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to issue promissory note")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "note": note})
}

// ListNotesAPI returns a student's promissory notes, newest first
func ListNotesAPI(c *fiber.Ctx, ledger *database.Ledger) error {
	notes, err := ledger.ListPromissoryNotes(c.Params("studentID"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch promissory notes")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"notes":   notes,
		"count":   len(notes),
	})
}
