package purchase

import (
	"time"

	"gorm.io/gorm"
)

const StatusCompleted = "COMPLETED"

// Purchase records one completed primary-market buy. The unique idempotency
// key makes the whole orchestrated operation replay-safe: a retried request
// returns this record instead of re-running the steps.
type Purchase struct {
	gorm.Model     `json:"-"`
	PurchaseID     string    `gorm:"uniqueIndex" json:"purchase_id"`
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	BuyerID        string    `gorm:"index" json:"buyer_id"`
	ListingID      string    `gorm:"index" json:"listing_id"`
	Quantity       int64     `json:"quantity"`
	CostCents      int64     `json:"cost_cents"`
	FeeCents       int64     `json:"fee_cents"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// BuyResponse is returned by the buy endpoint.
type BuyResponse struct {
	Purchase *Purchase `json:"purchase"`
	Replayed bool      `json:"replayed"`
}
