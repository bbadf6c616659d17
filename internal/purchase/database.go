package purchase

import (
	"errors"
	"strings"

	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// WithTx returns a Database bound to the given transaction.
func (d *Database) WithTx(tx *gorm.DB) *Database {
	return &Database{db: tx}
}

func (d *Database) CreatePurchase(p *Purchase) error {
	if err := d.db.Create(p).Error; err != nil {
		// Two first-time calls raced past the replay check on the same
		// key; the unique index decides. Retrying with the same key
		// lands on the winner's record.
		if isDuplicateKey(err) {
			return types.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (d *Database) GetPurchaseByIdempotencyKey(key string) (*Purchase, error) {
	var p Purchase
	if err := d.db.Where("idempotency_key = ?", key).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (d *Database) GetPurchase(purchaseID string) (*Purchase, error) {
	var p Purchase
	if err := d.db.Where("purchase_id = ?", purchaseID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (d *Database) ListByBuyer(buyerID string) ([]Purchase, error) {
	var purchases []Purchase
	if err := d.db.Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}
