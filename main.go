package main

import (
	"log"
	"os"

	"github.com/XeinQt/Accounting-System-sub001/app/config"
	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/routes/auth"
	"github.com/XeinQt/Accounting-System-sub001/app/routes/billing"
	"github.com/XeinQt/Accounting-System-sub001/app/routes/promissory"
	"github.com/XeinQt/Accounting-System-sub001/app/routes/students"
	"github.com/XeinQt/Accounting-System-sub001/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// jsonErrorHandler reports HTTP errors as JSON
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func main() {
	// Initialize configuration, logger and database
	config.Init()
	defer config.GetDB().Close()

	// Run database migrations
	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	cipher := services.NewAESAmountCipher(cipherSecret())
	ledger := database.NewLedger(config.GetDB(), config.GetLogger(), cipher)
	notices := services.NewNoticeService(ledger, config.GetLogger())

	app := fiber.New(fiber.Config{
		AppName:      "Accounting System",
		ErrorHandler: jsonErrorHandler,
	})

	app.Use(logger.New())
	app.Use(cors.New())

	// Routes
	auth.SetupAuthRoutes(app)
	students.SetupStudentsRoutes(app)
	billing.SetupBillingRoutes(app, ledger)
	promissory.SetupPromissoryRoutes(app, ledger, notices)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	addr := ":" + envOr("APP_PORT", "3000")
	log.Printf("server listening at %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

func cipherSecret() string {
	if secret := os.Getenv("AMOUNT_CIPHER_SECRET"); secret != "" {
		return secret
	}
	return "accounting-system-dev-secret"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
