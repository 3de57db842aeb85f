// Command seed populates the pool with fake users and a starter
// blocked-word list for local development.
package main

import (
	"flag"
	"log"

	"anonrelay/internal/config"
	"anonrelay/internal/database"
	"anonrelay/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "number of pool users to create")
	withFilters := flag.Bool("filters", true, "give some users a saved gender or region matching preference")
	shouldClean := flag.Bool("clean", true, "truncate domain tables before seeding")
	dryRun := flag.Bool("dry-run", false, "build users without writing to the database")
	flag.Parse()

	log.Println("anonrelay seeder")
	log.Printf("target: %d users, withFilters=%v, clean=%v, dryRun=%v", *numUsers, *withFilters, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:    *numUsers,
		WithFilters: *withFilters,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
	}

	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	log.Println("done")
}
