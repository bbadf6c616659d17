package resale

import (
	"errors"
	"strings"
	"time"

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

func (d *Database) CreateResaleListing(r *ResaleListing) error {
	return d.db.Create(r).Error
}

func (d *Database) GetResaleListing(resaleID string) (*ResaleListing, error) {
	var r ResaleListing
	if err := d.db.Where("resale_id = ?", resaleID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (d *Database) ListActiveByListing(listingID string) ([]ResaleListing, error) {
	var listings []ResaleListing
	if err := d.db.Where("listing_id = ? AND status = ?", listingID, StatusActive).
		Order("price_per_share_cents ASC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ActiveListedShares sums the shares a seller currently has locked in
// active offers for one listing.
func (d *Database) ActiveListedShares(sellerID, listingID string) (int64, error) {
	var sum int64
	err := d.db.Model(&ResaleListing{}).
		Where("seller_id = ? AND listing_id = ? AND status = ?", sellerID, listingID, StatusActive).
		Select("COALESCE(SUM(shares_for_sale), 0)").
		Scan(&sum).Error
	return sum, err
}

// DecrementShares takes quantity shares off an active offer, only if enough
// remain. Same conditional-update guard as the primary supply.
func (d *Database) DecrementShares(resaleID string, quantity int64) error {
	result := d.db.Model(&ResaleListing{}).
		Where("resale_id = ? AND status = ? AND shares_for_sale >= ?", resaleID, StatusActive, quantity).
		UpdateColumns(map[string]interface{}{
			"shares_for_sale": gorm.Expr("shares_for_sale - ?", quantity),
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		r, err := d.GetResaleListing(resaleID)
		if err != nil {
			return err
		}
		if r == nil {
			return types.ErrNotFound
		}
		return types.ErrOversold
	}

	// Close the offer once empty.
	return d.db.Model(&ResaleListing{}).
		Where("resale_id = ? AND shares_for_sale = 0 AND status = ?", resaleID, StatusActive).
		UpdateColumn("status", StatusSold).Error
}

// Cancel closes an active offer. Only the seller may cancel.
func (d *Database) Cancel(resaleID, sellerID string) error {
	result := d.db.Model(&ResaleListing{}).
		Where("resale_id = ? AND seller_id = ? AND status = ?", resaleID, sellerID, StatusActive).
		UpdateColumns(map[string]interface{}{
			"status":     StatusCancelled,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		r, err := d.GetResaleListing(resaleID)
		if err != nil {
			return err
		}
		if r == nil {
			return types.ErrNotFound
		}
		if r.SellerID != sellerID {
			return types.ErrForbidden
		}
		return types.Validationf("resale listing is not active")
	}
	return nil
}

func (d *Database) CreateTrade(t *ResaleTrade) error {
	if err := d.db.Create(t).Error; err != nil {
		// Same guard as the purchase record: racing writers on one key
		// collapse onto the winner via the unique index.
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

func (d *Database) GetTradeByIdempotencyKey(key string) (*ResaleTrade, error) {
	var t ResaleTrade
	if err := d.db.Where("idempotency_key = ?", key).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
