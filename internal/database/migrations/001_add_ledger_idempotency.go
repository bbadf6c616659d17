package migrations

import (
	"github.com/Cardboom/cardboomtest-sub000/internal/wallet"
	"gorm.io/gorm"
)

// AddLedgerIdempotency creates the wallet and ledger tables and guarantees
// the unique index on idempotency keys. The index is the sole
// double-posting guard, so it must exist before any entry is written.
func AddLedgerIdempotency(db *gorm.DB) error {
	if err := db.AutoMigrate(&wallet.Wallet{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&wallet.LedgerEntry{}); err != nil {
		return err
	}

	if !db.Migrator().HasIndex(&wallet.LedgerEntry{}, "IdempotencyKey") {
		if err := db.Migrator().CreateIndex(&wallet.LedgerEntry{}, "IdempotencyKey"); err != nil {
			return err
		}
	}

	return nil
}
