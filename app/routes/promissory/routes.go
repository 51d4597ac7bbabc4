package promissory

import (
	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/routes/auth"
	"github.com/XeinQt/Accounting-System-sub001/app/services"
	"github.com/gofiber/fiber/v2"
)

// SetupPromissoryRoutes sets up the promissory note routes
func SetupPromissoryRoutes(app *fiber.App, ledger *database.Ledger, notices *services.NoticeService) {
	api := app.Group("/api/promissory")
	api.Use(auth.AuthMiddleware)

	api.Get("/eligible", func(c *fiber.Ctx) error {
		return EligibleAPI(c, notices)
	})
	api.Post("/notes", func(c *fiber.Ctx) error {
		return CreateNoteAPI(c, notices)
	})
	api.Get("/notes/:studentID", func(c *fiber.Ctx) error {
		return ListNotesAPI(c, ledger)
	})
}
