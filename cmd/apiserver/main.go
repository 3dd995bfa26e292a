package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/korjavin/tgclasses/internal/classservice"
	"github.com/korjavin/tgclasses/internal/config"
	"github.com/korjavin/tgclasses/internal/database"
)

func main() {
	// Load .env file (ignore error if a file doesn't exist)
	if err := godotenv.Overload(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func(db *database.DB) {
		if err := db.Close(); err != nil {
			log.Fatalf("Failed to close database: %v", err)
		}
	}(db)

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	svc := classservice.New(db)

	log.Printf("Starting class service on %s", cfg.APIListenAddr)
	if err := svc.Start(cfg.APIListenAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
