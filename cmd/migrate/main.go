package main

import (
	"log"

	"github.com/XeinQt/Accounting-System-sub001/app/config"
	"github.com/XeinQt/Accounting-System-sub001/app/database"
)

func main() {
	log.Println("Starting manual migration...")

	config.Init()
	db := config.GetDB()
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Manual migration completed successfully!")
}
