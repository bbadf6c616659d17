package ownership

import (
	"time"

	"gorm.io/gorm"
)

// Ownership is a user's cumulative stake in one listing: shares held plus
// cost basis. One row per (user, listing), created lazily on first purchase
// and deleted when the stake reaches zero.
type Ownership struct {
	gorm.Model         `json:"-"`
	UserID             string    `gorm:"uniqueIndex:idx_user_listing" json:"user_id"`
	ListingID          string    `gorm:"uniqueIndex:idx_user_listing" json:"listing_id"`
	SharesOwned        int64     `json:"shares_owned"`
	TotalInvestedCents int64     `json:"total_invested_cents"`
	PurchasedAt        time.Time `json:"purchased_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Holding is one position in a user's portfolio summary, enriched with
// listing terms and resale lock-ups.
type Holding struct {
	ListingID          string `json:"listing_id"`
	AssetRef           string `json:"asset_ref"`
	SharesOwned        int64  `json:"shares_owned"`
	SharesListed       int64  `json:"shares_listed"`
	TotalInvestedCents int64  `json:"total_invested_cents"`
	SharePriceCents    int64  `json:"share_price_cents"`
	CurrentValueCents  int64  `json:"current_value_cents"`
}

// Summary is a user's full portfolio projection.
type Summary struct {
	UserID             string    `json:"user_id"`
	Holdings           []Holding `json:"holdings"`
	TotalInvestedCents int64     `json:"total_invested_cents"`
	TotalValueCents    int64     `json:"total_value_cents"`
}
