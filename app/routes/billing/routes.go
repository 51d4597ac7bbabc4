package billing

import (
	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/routes/auth"
	"github.com/gofiber/fiber/v2"
)

// SetupBillingRoutes sets up the billing ledger routes
func SetupBillingRoutes(app *fiber.App, ledger *database.Ledger) {
	api := app.Group("/api/billing")
	api.Use(auth.AuthMiddleware)

	api.Post("/enrollments", func(c *fiber.Ctx) error {
		return EnrollStudentAPI(c, ledger)
	})
	api.Post("/enrollments/reassign", func(c *fiber.Ctx) error {
		return ReassignPeriodAPI(c, ledger)
	})
	api.Post("/records", func(c *fiber.Ctx) error {
		return SaveBillingAPI(c, ledger)
	})
	api.Delete("/records", func(c *fiber.Ctx) error {
		return DeleteBillingAPI(c, ledger)
	})
	api.Post("/payments", func(c *fiber.Ctx) error {
		return ApplyPaymentAPI(c, ledger)
	})
	api.Post("/payments/reset", func(c *fiber.Ctx) error {
		return ResetPaymentsAPI(c, ledger)
	})
	api.Get("/balance/:studentID", func(c *fiber.Ctx) error {
		return BalanceBreakdownAPI(c, ledger)
	})
	api.Get("/stats", func(c *fiber.Ctx) error {
		return LedgerStatsAPI(c, ledger)
	})
}
