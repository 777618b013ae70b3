package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// RadiusStores holds the connections to the physically separate FreeRADIUS
// databases, one per user group.
type RadiusStores struct {
	students *sql.DB
	staff    *sql.DB
}

// NewRadiusStores opens a MySQL handle per configured group. Groups without
// a DSN are left nil; selecting them later fails with a clear error instead
// of at startup, since a deployment may legitimately serve only one group.
func NewRadiusStores(cfg *config.DatabaseConfig) (*RadiusStores, error) {
	stores := &RadiusStores{}

	var err error
	if cfg.RadiusStudentsURL != "" {
		stores.students, err = openRadiusDB(cfg.RadiusStudentsURL)
		if err != nil {
			return nil, fmt.Errorf("radius students store: %w", err)
		}
	}
	if cfg.RadiusStaffURL != "" {
		stores.staff, err = openRadiusDB(cfg.RadiusStaffURL)
		if err != nil {
			stores.Close()
			return nil, fmt.Errorf("radius staff store: %w", err)
		}
	}
	return stores, nil
}

func openRadiusDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open radius store: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping radius store: %w", err)
	}
	return db, nil
}

// ForGroup returns the store backing the given RADIUS backend kind.
func (s *RadiusStores) ForGroup(kind models.BackendKind) (DBPool, error) {
	switch kind {
	case models.BackendRadiusStudent:
		if s.students == nil {
			return nil, fmt.Errorf("radius students store not configured")
		}
		return SQLPool{DB: s.students}, nil
	case models.BackendRadiusStaff:
		if s.staff == nil {
			return nil, fmt.Errorf("radius staff store not configured")
		}
		return SQLPool{DB: s.staff}, nil
	default:
		return nil, fmt.Errorf("%s is not a radius backend", kind)
	}
}

// Close releases all configured group stores.
func (s *RadiusStores) Close() {
	if s.students != nil {
		_ = s.students.Close()
	}
	if s.staff != nil {
		_ = s.staff.Close()
	}
}
