package main

import (
	"flag"
	"log"

	"github.com/XeinQt/Accounting-System-sub001/app/config"
	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/models"
)

func main() {
	email := flag.String("email", "", "User email")
	password := flag.String("password", "", "User password")
	firstName := flag.String("first", "Admin", "First name")
	lastName := flag.String("last", "User", "Last name")
	role := flag.String("role", "admin", "Role name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("Usage: add_user -email <email> -password <password> [-first NAME] [-last NAME] [-role ROLE]")
	}

	config.Init()
	db := config.GetDB()
	defer db.Close()

	user := &models.User{
		Email:     *email,
		FirstName: *firstName,
		LastName:  *lastName,
	}
	if err := database.CreateUser(db, user, *password, *role); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	log.Printf("Created user %s (%s) with role %s", user.Email, user.ID, *role)
}
