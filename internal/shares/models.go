package shares

import (
	"time"

	"gorm.io/gorm"
)

// Listing statuses
const (
	StatusActive  = "ACTIVE"
	StatusSoldOut = "SOLD_OUT"
)

// Verification statuses
const (
	VerificationVerified    = "VERIFIED"
	VerificationOverdue     = "OVERDUE"
	VerificationNotRequired = "NOT_REQUIRED"
)

// ShareListing fixes the fractional terms of one asset: total supply and
// price per share are immutable after creation. AvailableShares is the only
// mutable supply counter; every decrement is a conditional update so
// concurrent buyers cannot jointly exceed the supply.
type ShareListing struct {
	gorm.Model                `json:"-"`
	ListingID                 string    `gorm:"uniqueIndex" json:"listing_id"`
	AssetRef                  string    `json:"asset_ref"`
	OwnerID                   string    `gorm:"index" json:"owner_id"`
	TotalShares               int64     `json:"total_shares"`
	AvailableShares           int64     `json:"available_shares"`
	SharePriceCents           int64     `json:"share_price_cents"`
	MinShares                 int64     `json:"min_shares"`
	Currency                  string    `json:"currency"`
	DailyVerificationRequired bool      `json:"daily_verification_required"`
	LastVerifiedAt            time.Time `json:"last_verified_at"`
	VerificationStatus        string    `json:"verification_status"`
	Status                    string    `json:"status"` // ACTIVE, SOLD_OUT
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// CreateListingRequest carries the parameters for fractionalizing an asset.
type CreateListingRequest struct {
	AssetRef                  string `json:"asset_ref" binding:"required"`
	TotalShares               int64  `json:"total_shares" binding:"required"`
	SharePriceCents           int64  `json:"share_price_cents" binding:"required"`
	MinShares                 int64  `json:"min_shares" binding:"required"`
	Currency                  string `json:"currency"`
	DailyVerificationRequired bool   `json:"daily_verification_required"`
}
