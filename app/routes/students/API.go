package students

import (
	"database/sql"
	"strconv"

	"github.com/XeinQt/Accounting-System-sub001/app/config"
	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/gofiber/fiber/v2"
)

// GetStudentsAPI returns all students with optional filtering
func GetStudentsAPI(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	filters := database.StudentFilters{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	}

	students, err := database.GetStudents(config.GetDB(), filters)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch students")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"students": students,
		"count":    len(students),
	})
}

// GetStudentByIDAPI returns one student
func GetStudentByIDAPI(c *fiber.Ctx) error {
	student, err := database.GetStudentByID(config.GetDB(), c.Params("id"))
	if err == sql.ErrNoRows {
		return fiber.NewError(fiber.StatusNotFound, "Student not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch student")
	}

	return c.JSON(fiber.Map{"success": true, "student": student})
}

// CreateStudentAPI creates a new student
func CreateStudentAPI(c *fiber.Ctx) error {
	var student models.Student
	if err := c.BodyParser(&student); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if student.StudentNo == "" || student.FirstName == "" || student.LastName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_no, first_name and last_name are required")
	}

	if err := database.CreateStudent(config.GetDB(), &student); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create student")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "student": student})
}
