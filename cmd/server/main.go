package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/korjavin/tgclasses/internal/config"
	"github.com/korjavin/tgclasses/internal/server"
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
	if cfg.BotToken == "" {
		log.Printf("Warning: BOT_TOKEN not set; Telegram identity cannot be verified")
	}

	srv := server.New(cfg)

	log.Printf("Starting frontend on %s (class service at %s)", cfg.ListenAddr, cfg.APIBaseURL)
	if err := srv.Start(cfg.ListenAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
