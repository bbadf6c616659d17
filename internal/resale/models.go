package resale

import (
	"time"

	"gorm.io/gorm"
)

// Resale listing statuses
const (
	StatusActive    = "ACTIVE"
	StatusSold      = "SOLD"
	StatusCancelled = "CANCELLED"
)

// ResaleListing is a secondary-market offer to sell already-owned shares.
// The listed quantity is locked out of the seller's tradable pool while the
// offer is active: across all their active offers for a listing, a seller
// can never list more than they hold. SharesForSale only decreases, and the
// offer closes when it reaches zero.
type ResaleListing struct {
	gorm.Model         `json:"-"`
	ResaleID           string    `gorm:"uniqueIndex" json:"resale_id"`
	ListingID          string    `gorm:"index" json:"listing_id"`
	SellerID           string    `gorm:"index" json:"seller_id"`
	SharesForSale      int64     `json:"shares_for_sale"`
	PricePerShareCents int64     `json:"price_per_share_cents"`
	Status             string    `json:"status"` // ACTIVE, SOLD, CANCELLED
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ResaleTrade records one fill against a resale offer, keyed by the buyer's
// idempotency key so retried fills are replay-safe.
type ResaleTrade struct {
	gorm.Model     `json:"-"`
	TradeID        string    `gorm:"uniqueIndex" json:"trade_id"`
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	ResaleID       string    `gorm:"index" json:"resale_id"`
	ListingID      string    `json:"listing_id"`
	BuyerID        string    `json:"buyer_id"`
	SellerID       string    `json:"seller_id"`
	Quantity       int64     `json:"quantity"`
	GrossCents     int64     `json:"gross_cents"`
	FeeCents       int64     `json:"fee_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateResaleRequest carries the parameters for a new offer.
type CreateResaleRequest struct {
	ListingID          string `json:"listing_id" binding:"required"`
	Shares             int64  `json:"shares" binding:"required"`
	PricePerShareCents int64  `json:"price_per_share_cents" binding:"required"`
}

// TradeResponse is returned by the resale buy endpoint.
type TradeResponse struct {
	Trade    *ResaleTrade `json:"trade"`
	Replayed bool         `json:"replayed"`
}
