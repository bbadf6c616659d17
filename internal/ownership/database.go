package ownership

import (
	"errors"
	"time"

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

func (d *Database) GetOwnership(userID, listingID string) (*Ownership, error) {
	var row Ownership
	if err := d.db.Where("user_id = ? AND listing_id = ?", userID, listingID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (d *Database) ListByUser(userID string) ([]Ownership, error) {
	var rows []Ownership
	if err := d.db.Where("user_id = ?", userID).Order("listing_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *Database) ListByListing(listingID string) ([]Ownership, error) {
	var rows []Ownership
	if err := d.db.Where("listing_id = ?", listingID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Credit upserts a stake: increments an existing row or creates one.
func (d *Database) Credit(userID, listingID string, shares, costCents int64) error {
	result := d.db.Model(&Ownership{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		UpdateColumns(map[string]interface{}{
			"shares_owned":         gorm.Expr("shares_owned + ?", shares),
			"total_invested_cents": gorm.Expr("total_invested_cents + ?", costCents),
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	row := &Ownership{
		UserID:             userID,
		ListingID:          listingID,
		SharesOwned:        shares,
		TotalInvestedCents: costCents,
		PurchasedAt:        time.Now(),
		UpdatedAt:          time.Now(),
	}
	return d.db.Create(row).Error
}

// Debit decrements a stake only if enough shares are held, reducing the cost
// basis proportionally. Returns the updated row, or nil when the row was
// deleted because the stake reached zero.
func (d *Database) Debit(userID, listingID string, shares, investedDeltaCents int64) (*Ownership, error) {
	result := d.db.Model(&Ownership{}).
		Where("user_id = ? AND listing_id = ? AND shares_owned >= ?", userID, listingID, shares).
		UpdateColumns(map[string]interface{}{
			"shares_owned":         gorm.Expr("shares_owned - ?", shares),
			"total_invested_cents": gorm.Expr("total_invested_cents - ?", investedDeltaCents),
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	row, err := d.GetOwnership(userID, listingID)
	if err != nil || row == nil {
		return nil, err
	}
	if row.SharesOwned == 0 {
		// Zero-share rows are removed; the wallet ledger keeps the
		// history.
		if err := d.db.Unscoped().Delete(&Ownership{}, row.ID).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}
	return row, nil
}
