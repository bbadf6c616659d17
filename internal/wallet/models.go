package wallet

import (
	"time"

	"gorm.io/gorm"
)

// Wallet types
const (
	TypeUser     = "USER"
	TypePlatform = "PLATFORM"
)

// PlatformUserID is the reserved owner of the shared fee wallet.
const PlatformUserID = "platform"

// DefaultCurrency is used when a caller does not specify one.
const DefaultCurrency = "USD"

// Ledger entry types
const (
	EntryTypeTopUp        = "TOP_UP"
	EntryTypePurchase     = "PURCHASE"
	EntryTypeSaleProceeds = "SALE_PROCEEDS"
	EntryTypeFee          = "FEE"
	EntryTypeReversal     = "REVERSAL"
)

// Wallet holds a user's spendable balance. BalanceCents is a projection of
// the wallet's ledger entries, never mutated on its own. Platform wallets
// take append-only entries in the request path and are reconciled out of
// band, so their projection may lag the ledger.
type Wallet struct {
	gorm.Model   `json:"-"`
	WalletID     string    `gorm:"uniqueIndex" json:"wallet_id"`
	UserID       string    `gorm:"uniqueIndex" json:"user_id"`
	BalanceCents int64     `json:"balance_cents"`
	Currency     string    `json:"currency"`
	WalletType   string    `json:"wallet_type"` // USER or PLATFORM
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LedgerEntry is an immutable record of one balance-changing event. The
// unique index on IdempotencyKey is the double-posting guard.
type LedgerEntry struct {
	gorm.Model     `json:"-"`
	EntryID        string    `gorm:"uniqueIndex" json:"entry_id"`
	WalletID       string    `gorm:"index" json:"wallet_id"`
	DeltaCents     int64     `json:"delta_cents"`
	Currency       string    `json:"currency"`
	EntryType      string    `json:"entry_type"`
	ReferenceType  string    `json:"reference_type"`
	ReferenceID    string    `json:"reference_id"`
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// EntryRequest carries the parameters of a ledger posting.
type EntryRequest struct {
	WalletID       string
	DeltaCents     int64
	Currency       string
	EntryType      string
	ReferenceType  string
	ReferenceID    string
	IdempotencyKey string
}

// BalanceResponse is returned by the balance endpoint.
type BalanceResponse struct {
	WalletID     string `json:"wallet_id"`
	UserID       string `json:"user_id"`
	BalanceCents int64  `json:"balance_cents"`
	Currency     string `json:"currency"`
}

// PostEntryResponse is returned by the top-up endpoint.
type PostEntryResponse struct {
	Entry        *LedgerEntry `json:"entry"`
	Replayed     bool         `json:"replayed"`
	BalanceCents int64        `json:"balance_cents"`
}
