package main

import (
	"fmt"

	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/database"
)

// runMigrations applies the embedded schema migrations to the main store.
// Invoked as `server migrate`; deployments run it as an init step before
// the API comes up.
func runMigrations() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := database.Migrate(cfg.Database.DatabaseURL); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	fmt.Println("Migrations applied successfully")
	return nil
}
