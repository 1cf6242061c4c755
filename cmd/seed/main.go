// main.go - development data seeder
package main

import (
	"flag"
	"log"

	"github.com/karloscodes/cartridge"

	"beaconly/internal/config"
	"beaconly/internal/database"
	"beaconly/internal/seeder"
	"beaconly/internal/visitors"
)

func main() {
	domain := flag.String("domain", "", "domain to seed (must already exist)")
	count := flag.Int("events", 5000, "number of events to create")
	days := flag.Int("days", 30, "spread events over this many trailing days")
	flag.Parse()

	if *domain == "" {
		log.Fatal("usage: seed -domain example.com [-events N] [-days N]")
	}

	cfg := config.GetConfig()
	if cfg.Environment == config.Production {
		log.Fatal("refusing to seed a production database")
	}
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	s := seeder.NewSeeder(dbManager, logger, visitors.DeriveKey(cfg.PrivateKey), *count, *days)
	if err := s.SeedDomain(*domain); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
