// Package database provides the driver-agnostic query surface and the
// connectors for the main store, the RADIUS group stores, and Redis.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/unach-dtic/chatbot-api/internal/config"
)

// Database is the main-store contract: queries plus lifecycle.
type Database interface {
	DBPool
	HealthCheck(ctx context.Context) error
	Close() error
}

// NewDatabaseConnection opens the main store using the configured driver.
// Postgres is the production driver; sqlite exists for local development.
func NewDatabaseConnection(ctx context.Context, cfg *config.DatabaseConfig) (Database, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres", "postgresql", "":
		return NewPostgresConnection(ctx, cfg)
	case "sqlite", "sqlite3":
		return NewSQLiteConnection(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
