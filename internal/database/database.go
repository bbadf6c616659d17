package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Cardboom/cardboomtest-sub000/internal/database/migrations"
	"github.com/Cardboom/cardboomtest-sub000/internal/ownership"
	"github.com/Cardboom/cardboomtest-sub000/internal/purchase"
	"github.com/Cardboom/cardboomtest-sub000/internal/resale"
	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "cardboom.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Pin a single connection: sqlite has one writer, and funnelling every
	// transaction through one connection linearizes the conditional
	// updates that guard supply and balances.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	// Run migrations
	if err := migrations.AddLedgerIdempotency(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&shares.ShareListing{},
		&ownership.Ownership{},
		&purchase.Purchase{},
		&resale.ResaleListing{},
		&resale.ResaleTrade{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
