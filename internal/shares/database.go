package shares

import (
	"errors"
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

func (d *Database) CreateListing(listing *ShareListing) error {
	return d.db.Create(listing).Error
}

func (d *Database) GetListing(listingID string) (*ShareListing, error) {
	var listing ShareListing
	if err := d.db.Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (d *Database) ListActive() ([]ShareListing, error) {
	var listings []ShareListing
	if err := d.db.Where("status = ?", StatusActive).Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (d *Database) ListAll() ([]ShareListing, error) {
	var listings []ShareListing
	if err := d.db.Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ReserveShares decrements available supply only if enough remains. The
// single conditional UPDATE is the no-oversell guard: under concurrent
// reservations the storage layer linearizes the decrements and the supply
// can never go negative.
func (d *Database) ReserveShares(listingID string, quantity int64) error {
	result := d.db.Model(&ShareListing{}).
		Where("listing_id = ? AND available_shares >= ?", listingID, quantity).
		UpdateColumn("available_shares", gorm.Expr("available_shares - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing listing from a lost race.
		listing, err := d.GetListing(listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return types.ErrNotFound
		}
		return types.ErrOversold
	}

	// Mark sold out when the supply hits zero so the UI can read it as an
	// outcome rather than recomputing.
	return d.db.Model(&ShareListing{}).
		Where("listing_id = ? AND available_shares = 0", listingID).
		UpdateColumn("status", StatusSoldOut).Error
}

// ReleaseShares is the compensating increment for an unwound reservation.
func (d *Database) ReleaseShares(listingID string, quantity int64) error {
	result := d.db.Model(&ShareListing{}).
		Where("listing_id = ?", listingID).
		UpdateColumns(map[string]interface{}{
			"available_shares": gorm.Expr("available_shares + ?", quantity),
			"status":           StatusActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// MarkOverdue flips stale verifications to OVERDUE and returns how many
// listings were affected.
func (d *Database) MarkOverdue(cutoff time.Time) (int64, error) {
	result := d.db.Model(&ShareListing{}).
		Where("daily_verification_required = ? AND verification_status = ? AND last_verified_at <= ?",
			true, VerificationVerified, cutoff).
		UpdateColumn("verification_status", VerificationOverdue)
	return result.RowsAffected, result.Error
}

func (d *Database) UpdateVerification(listingID, status string, updates map[string]interface{}) error {
	updates["verification_status"] = status
	result := d.db.Model(&ShareListing{}).
		Where("listing_id = ?", listingID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}
