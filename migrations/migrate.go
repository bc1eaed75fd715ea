package main

import (
	"log"
	"os"

	"portfolio/src/config"
	"portfolio/src/database"
)

func main() {
	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("Error loading config for environment: %v", err)
	}
	if err := config.ResolveSecrets(cfg); err != nil {
		log.Fatalf("Error resolving secrets: %v", err)
	}

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("Database migration completed successfully")
}
