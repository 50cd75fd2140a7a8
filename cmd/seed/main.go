package main

import (
	"fmt"
	"log"
	"os"

	"github.com/inkwell/backend/internal/config"
	"github.com/inkwell/backend/internal/database"
	"github.com/inkwell/backend/internal/logger"
	"github.com/inkwell/backend/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	seeder := seed.NewSeeder(db)

	switch command {
	case "dev":
		if err := seeder.SeedDev(); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		fmt.Println("Development database seeded")
	case "clean":
		if err := seeder.Clean(); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
		fmt.Println("Seed data removed")
	default:
		fmt.Println("Usage: seed [dev|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}
