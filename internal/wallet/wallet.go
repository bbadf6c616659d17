package wallet

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Cardboom/cardboomtest-sub000/internal/auth"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"github.com/Cardboom/cardboomtest-sub000/pkg/response"
)

// ReversalKeySuffix is appended to an entry's idempotency key when posting
// its compensating entry.
const ReversalKeySuffix = "_reversal"

// Service manages wallets and their append-only ledgers.
type Service struct {
	gormDB *gorm.DB
	db     *Database
}

// NewService creates a new wallet service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		gormDB: gormDB,
		db:     NewDatabase(gormDB),
	}
}

// EnsureWallet returns the user's wallet, provisioning it on first use.
func (s *Service) EnsureWallet(userID, currency string) (*Wallet, error) {
	var w *Wallet
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		w, txErr = s.EnsureWalletTx(tx, userID, currency)
		return txErr
	})
	return w, err
}

// EnsureWalletTx is EnsureWallet inside an enclosing transaction.
func (s *Service) EnsureWalletTx(tx *gorm.DB, userID, currency string) (*Wallet, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	db := s.db.WithTx(tx)

	w, err := db.GetWalletByUserID(userID)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return w, nil
	}

	walletType := TypeUser
	if userID == PlatformUserID {
		walletType = TypePlatform
	}
	w = &Wallet{
		WalletID:   "WAL_" + uuid.New().String(),
		UserID:     userID,
		Currency:   currency,
		WalletType: walletType,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.CreateWallet(w); err != nil {
		return nil, err
	}

	log.Info().
		Str("wallet_id", w.WalletID).
		Str("user_id", userID).
		Str("wallet_type", walletType).
		Msg("provisioned wallet")

	return w, nil
}

// EnsurePlatformWalletTx returns the shared fee wallet, creating it if
// needed.
func (s *Service) EnsurePlatformWalletTx(tx *gorm.DB, currency string) (*Wallet, error) {
	return s.EnsureWalletTx(tx, PlatformUserID, currency)
}

// PostEntry appends a ledger entry and updates the balance projection in one
// transaction. A replayed idempotency key returns the prior entry without
// reapplying the delta.
func (s *Service) PostEntry(req EntryRequest) (*LedgerEntry, bool, error) {
	var (
		entry    *LedgerEntry
		replayed bool
	)
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, replayed, txErr = s.PostEntryTx(tx, req)
		return txErr
	})
	return entry, replayed, err
}

// PostEntryTx is PostEntry inside an enclosing transaction. The caller's
// transaction must commit for the entry to become visible.
func (s *Service) PostEntryTx(tx *gorm.DB, req EntryRequest) (*LedgerEntry, bool, error) {
	if req.IdempotencyKey == "" {
		return nil, false, types.Validationf("idempotency key is required")
	}
	if req.DeltaCents == 0 {
		return nil, false, types.Validationf("delta must be non-zero")
	}
	if req.EntryType == "" {
		return nil, false, types.Validationf("entry type is required")
	}

	db := s.db.WithTx(tx)

	// Replay guard: a prior entry under this key wins, but only when it
	// is the same posting. A key bound to a different wallet, amount or
	// reference is a reuse, not a retry; honoring it as a replay would
	// let an operation skip its own debit or credit.
	if existing, err := db.GetEntryByIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, false, err
	} else if existing != nil {
		if existing.WalletID != req.WalletID ||
			existing.DeltaCents != req.DeltaCents ||
			existing.EntryType != req.EntryType ||
			existing.ReferenceType != req.ReferenceType ||
			existing.ReferenceID != req.ReferenceID {
			return nil, false, types.Validationf("idempotency key %s is already bound to a different posting", req.IdempotencyKey)
		}
		return existing, true, nil
	}

	w, err := db.GetWallet(req.WalletID)
	if err != nil {
		return nil, false, err
	}
	if w == nil {
		return nil, false, types.ErrNotFound
	}

	currency := req.Currency
	if currency == "" {
		currency = w.Currency
	}
	if currency != w.Currency {
		return nil, false, types.Validationf("currency %s does not match wallet currency %s", currency, w.Currency)
	}

	// Platform wallets skip the projection in the request path; the
	// reconciler recomputes it from the entry sum.
	if w.WalletType != TypePlatform {
		if req.DeltaCents < 0 {
			if err := db.DebitBalance(w.WalletID, req.DeltaCents); err != nil {
				return nil, false, err
			}
		} else {
			if err := db.CreditBalance(w.WalletID, req.DeltaCents); err != nil {
				return nil, false, err
			}
		}
	}

	entry := &LedgerEntry{
		EntryID:        "LED_" + uuid.New().String(),
		WalletID:       w.WalletID,
		DeltaCents:     req.DeltaCents,
		Currency:       currency,
		EntryType:      req.EntryType,
		ReferenceType:  req.ReferenceType,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
	if err := db.CreateEntry(entry); err != nil {
		// The unique index on idempotency_key is the final guard: a
		// racing writer got there first. The enclosing transaction
		// rolls back the projection update; the caller retries with
		// the same key and hits the replay path.
		if isDuplicateKey(err) {
			return nil, false, types.ErrConcurrencyConflict
		}
		return nil, false, err
	}

	log.Info().
		Str("entry_id", entry.EntryID).
		Str("wallet_id", w.WalletID).
		Int64("delta_cents", entry.DeltaCents).
		Str("entry_type", entry.EntryType).
		Msg("posted ledger entry")

	return entry, false, nil
}

// ReverseEntry posts the compensating entry for a committed posting,
// identified by its idempotency key. The reversal carries the original key
// suffixed "_reversal", so reversing is itself replay-safe and the net
// effect on the wallet is zero.
func (s *Service) ReverseEntry(originalKey string) (*LedgerEntry, bool, error) {
	var (
		entry    *LedgerEntry
		replayed bool
	)
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		db := s.db.WithTx(tx)

		original, err := db.GetEntryByIdempotencyKey(originalKey)
		if err != nil {
			return err
		}
		if original == nil {
			return types.ErrNotFound
		}

		entry, replayed, err = s.PostEntryTx(tx, EntryRequest{
			WalletID:       original.WalletID,
			DeltaCents:     -original.DeltaCents,
			Currency:       original.Currency,
			EntryType:      EntryTypeReversal,
			ReferenceType:  "ledger_entry",
			ReferenceID:    original.EntryID,
			IdempotencyKey: originalKey + ReversalKeySuffix,
		})
		return err
	})
	return entry, replayed, err
}

// GetBalance returns the balance projection for a wallet.
func (s *Service) GetBalance(walletID string) (*BalanceResponse, error) {
	w, err := s.db.GetWallet(walletID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, types.ErrNotFound
	}
	return &BalanceResponse{
		WalletID:     w.WalletID,
		UserID:       w.UserID,
		BalanceCents: w.BalanceCents,
		Currency:     w.Currency,
	}, nil
}

// GetBalanceByUserID returns the balance projection for a user's wallet,
// provisioning the wallet on first use.
func (s *Service) GetBalanceByUserID(userID string) (*BalanceResponse, error) {
	w, err := s.EnsureWallet(userID, "")
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		WalletID:     w.WalletID,
		UserID:       w.UserID,
		BalanceCents: w.BalanceCents,
		Currency:     w.Currency,
	}, nil
}

// GetLedger returns a wallet's entries oldest first.
func (s *Service) GetLedger(walletID string) ([]LedgerEntry, error) {
	w, err := s.db.GetWallet(walletID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, types.ErrNotFound
	}
	return s.db.GetEntriesByWalletID(walletID)
}

// GetDB exposes the data layer for the reconciler.
func (s *Service) GetDB() *Database {
	return s.db
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The sqlite driver surfaces constraint violations as plain errors.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GinHandlers contains HTTP handlers for wallet endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for wallet endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// TopUpHandler handles POST requests to credit a user's wallet
// Requires a valid JWT token and idempotency key in headers
func (h *GinHandlers) TopUpHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		var request struct {
			AmountCents int64  `json:"amount_cents" binding:"required"`
			Currency    string `json:"currency"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if request.AmountCents <= 0 {
			response.BadRequest(c, "amount_cents must be positive")
			return
		}

		w, err := h.service.EnsureWallet(userID, request.Currency)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		entry, replayed, err := h.service.PostEntry(EntryRequest{
			WalletID:       w.WalletID,
			DeltaCents:     request.AmountCents,
			Currency:       w.Currency,
			EntryType:      EntryTypeTopUp,
			ReferenceType:  "topup",
			ReferenceID:    idempotencyKey,
			IdempotencyKey: idempotencyKey,
		})
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		balance, err := h.service.GetBalance(w.WalletID)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, PostEntryResponse{
			Entry:        entry,
			Replayed:     replayed,
			BalanceCents: balance.BalanceCents,
		})
	}
}

// GetBalanceHandler handles GET requests for the caller's wallet balance
func (h *GinHandlers) GetBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		balance, err := h.service.GetBalanceByUserID(userID)
		response.Handle(c, balance, err)
	}
}

// GetLedgerHandler handles GET requests for the caller's ledger entries
func (h *GinHandlers) GetLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		w, err := h.service.EnsureWallet(userID, "")
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		entries, err := h.service.GetLedger(w.WalletID)
		response.Handle(c, entries, err)
	}
}
