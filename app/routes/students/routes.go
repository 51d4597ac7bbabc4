package students

import (
	"github.com/XeinQt/Accounting-System-sub001/app/routes/auth"
	"github.com/gofiber/fiber/v2"
)

// SetupStudentsRoutes sets up the students routes
func SetupStudentsRoutes(app *fiber.App) {
	api := app.Group("/api/students")
	api.Use(auth.AuthMiddleware)

	api.Get("/", GetStudentsAPI)       // Get all students
	api.Get("/:id", GetStudentByIDAPI) // Get single student by ID
	api.Post("/", CreateStudentAPI)    // Create new student
}
