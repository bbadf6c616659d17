package wallet

import (
	"errors"

	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// WithTx returns a Database bound to the given transaction so wallet writes
// can join a larger atomic operation.
func (d *Database) WithTx(tx *gorm.DB) *Database {
	return &Database{db: tx}
}

func (d *Database) CreateWallet(w *Wallet) error {
	return d.db.Create(w).Error
}

func (d *Database) GetWallet(walletID string) (*Wallet, error) {
	var w Wallet
	if err := d.db.Where("wallet_id = ?", walletID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (d *Database) GetWalletByUserID(userID string) (*Wallet, error) {
	var w Wallet
	if err := d.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (d *Database) CreateEntry(entry *LedgerEntry) error {
	return d.db.Create(entry).Error
}

func (d *Database) GetEntryByIdempotencyKey(key string) (*LedgerEntry, error) {
	var entry LedgerEntry
	if err := d.db.Where("idempotency_key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (d *Database) GetEntryByEntryID(entryID string) (*LedgerEntry, error) {
	var entry LedgerEntry
	if err := d.db.Where("entry_id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (d *Database) GetEntriesByWalletID(walletID string) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	if err := d.db.Where("wallet_id = ?", walletID).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CreditBalance applies a non-negative delta to the balance projection.
func (d *Database) CreditBalance(walletID string, deltaCents int64) error {
	result := d.db.Model(&Wallet{}).
		Where("wallet_id = ?", walletID).
		UpdateColumn("balance_cents", gorm.Expr("balance_cents + ?", deltaCents))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DebitBalance applies a negative delta only when the resulting balance
// stays non-negative. The conditional update linearizes concurrent debits
// at the storage layer.
func (d *Database) DebitBalance(walletID string, deltaCents int64) error {
	result := d.db.Model(&Wallet{}).
		Where("wallet_id = ? AND balance_cents + ? >= 0", walletID, deltaCents).
		UpdateColumn("balance_cents", gorm.Expr("balance_cents + ?", deltaCents))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrInsufficientFunds
	}
	return nil
}

// SumEntries recomputes a wallet's balance from its ledger.
func (d *Database) SumEntries(walletID string) (int64, error) {
	var sum int64
	err := d.db.Model(&LedgerEntry{}).
		Where("wallet_id = ?", walletID).
		Select("COALESCE(SUM(delta_cents), 0)").
		Scan(&sum).Error
	return sum, err
}

func (d *Database) GetPlatformWallets() ([]Wallet, error) {
	var wallets []Wallet
	if err := d.db.Where("wallet_type = ?", TypePlatform).Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

// SetBalance overwrites the projection. Only the reconciler uses this, for
// platform wallets whose projection is deliberately stale.
func (d *Database) SetBalance(walletID string, balanceCents int64) error {
	return d.db.Model(&Wallet{}).
		Where("wallet_id = ?", walletID).
		UpdateColumn("balance_cents", balanceCents).Error
}
