package purchase

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Cardboom/cardboomtest-sub000/internal/auth"
	"github.com/Cardboom/cardboomtest-sub000/internal/fees"
	"github.com/Cardboom/cardboomtest-sub000/internal/ownership"
	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"github.com/Cardboom/cardboomtest-sub000/internal/wallet"
	"github.com/Cardboom/cardboomtest-sub000/pkg/response"
)

// Config holds purchase policy knobs.
type Config struct {
	// MinSharesEveryPurchase enforces the listing's minimum on every buy.
	// The default enforces it only on a buyer's first purchase of a
	// listing, so existing holders can top up in smaller lots.
	MinSharesEveryPurchase bool
}

// Service orchestrates primary-market purchases across the wallet ledger,
// the share registry and the ownership ledger. It is the only component
// that mutates more than one of them per call, and it does so in a single
// transaction: either every step commits or none is observable.
type Service struct {
	gormDB   *gorm.DB
	db       *Database
	wallets  *wallet.Service
	registry *shares.Service
	holdings *ownership.Service
	fees     fees.Schedule
	cfg      Config
}

// NewService creates a new purchase orchestrator over the given services.
func NewService(gormDB *gorm.DB, wallets *wallet.Service, registry *shares.Service, holdings *ownership.Service, schedule fees.Schedule, cfg Config) *Service {
	return &Service{
		gormDB:   gormDB,
		db:       NewDatabase(gormDB),
		wallets:  wallets,
		registry: registry,
		holdings: holdings,
		fees:     schedule,
		cfg:      cfg,
	}
}

// BuyShares buys quantity shares of a listing for the buyer. Replaying the
// same idempotency key returns the recorded purchase with no new effects.
func (s *Service) BuyShares(buyerID, listingID string, quantity int64, idempotencyKey string) (*Purchase, bool, error) {
	logger := log.With().
		Str("buyer_id", buyerID).
		Str("listing_id", listingID).
		Int64("quantity", quantity).
		Str("service", "purchase").
		Logger()

	if idempotencyKey == "" {
		return nil, false, types.Validationf("idempotency key is required")
	}
	if quantity <= 0 {
		return nil, false, types.Validationf("quantity must be positive")
	}

	var (
		result   *Purchase
		replayed bool
	)
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		db := s.db.WithTx(tx)

		// Replay guard for the whole orchestrated operation.
		if prior, err := db.GetPurchaseByIdempotencyKey(idempotencyKey); err != nil {
			return err
		} else if prior != nil {
			result = prior
			replayed = true
			return nil
		}

		listing, err := s.registry.GetListingTx(tx, listingID)
		if err != nil {
			return err
		}
		if listing.OwnerID == buyerID {
			return types.Validationf("cannot buy shares of your own listing")
		}
		if quantity > listing.AvailableShares {
			return types.ErrOversold
		}

		existing, err := s.holdings.GetOwnershipTx(tx, buyerID, listingID)
		if err != nil {
			return err
		}
		if (existing == nil || s.cfg.MinSharesEveryPurchase) && quantity < listing.MinShares {
			return types.Validationf("quantity %d is below the listing minimum of %d shares", quantity, listing.MinShares)
		}

		cost := quantity * listing.SharePriceCents
		fee := s.fees.PlatformFee(cost)

		buyerWallet, err := s.wallets.EnsureWalletTx(tx, buyerID, listing.Currency)
		if err != nil {
			return err
		}
		if _, _, err := s.wallets.PostEntryTx(tx, wallet.EntryRequest{
			WalletID:       buyerWallet.WalletID,
			DeltaCents:     -cost,
			Currency:       listing.Currency,
			EntryType:      wallet.EntryTypePurchase,
			ReferenceType:  "share_listing",
			ReferenceID:    listingID,
			IdempotencyKey: idempotencyKey,
		}); err != nil {
			return err
		}

		// Losing the supply race here rolls back the debit above along
		// with everything else; the buyer's wallet is never observably
		// touched.
		if err := s.registry.ReserveSharesTx(tx, listingID, quantity); err != nil {
			return err
		}

		if err := s.holdings.CreditOwnershipTx(tx, buyerID, listingID, quantity, cost); err != nil {
			return err
		}

		sellerWallet, err := s.wallets.EnsureWalletTx(tx, listing.OwnerID, listing.Currency)
		if err != nil {
			return err
		}
		if _, _, err := s.wallets.PostEntryTx(tx, wallet.EntryRequest{
			WalletID:       sellerWallet.WalletID,
			DeltaCents:     cost - fee,
			Currency:       listing.Currency,
			EntryType:      wallet.EntryTypeSaleProceeds,
			ReferenceType:  "share_listing",
			ReferenceID:    listingID,
			IdempotencyKey: idempotencyKey + "_proceeds",
		}); err != nil {
			return err
		}

		if fee > 0 {
			platformWallet, err := s.wallets.EnsurePlatformWalletTx(tx, listing.Currency)
			if err != nil {
				return err
			}
			if _, _, err := s.wallets.PostEntryTx(tx, wallet.EntryRequest{
				WalletID:       platformWallet.WalletID,
				DeltaCents:     fee,
				Currency:       listing.Currency,
				EntryType:      wallet.EntryTypeFee,
				ReferenceType:  "share_listing",
				ReferenceID:    listingID,
				IdempotencyKey: idempotencyKey + "_fee",
			}); err != nil {
				return err
			}
		}

		result = &Purchase{
			PurchaseID:     "PUR_" + uuid.New().String(),
			IdempotencyKey: idempotencyKey,
			BuyerID:        buyerID,
			ListingID:      listingID,
			Quantity:       quantity,
			CostCents:      cost,
			FeeCents:       fee,
			Status:         StatusCompleted,
			CreatedAt:      time.Now(),
		}
		return db.CreatePurchase(result)
	})
	if err != nil {
		logger.Error().Err(err).Msg("purchase failed")
		return nil, false, err
	}

	if replayed {
		logger.Info().Str("purchase_id", result.PurchaseID).Msg("replayed purchase")
	} else {
		logger.Info().
			Str("purchase_id", result.PurchaseID).
			Int64("cost_cents", result.CostCents).
			Int64("fee_cents", result.FeeCents).
			Msg("purchase completed")
	}

	return result, replayed, nil
}

// GetPurchase retrieves a purchase by ID.
func (s *Service) GetPurchase(purchaseID string) (*Purchase, error) {
	p, err := s.db.GetPurchase(purchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, types.ErrNotFound
	}
	return p, nil
}

// ListPurchases returns a buyer's purchases, newest first.
func (s *Service) ListPurchases(buyerID string) ([]Purchase, error) {
	return s.db.ListByBuyer(buyerID)
}

// GinHandlers contains HTTP handlers for purchase endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for purchase endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// BuySharesHandler handles POST requests to buy shares of a listing
// Requires a valid JWT token and idempotency key in headers
func (h *GinHandlers) BuySharesHandler() gin.HandlerFunc {
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

		listingID := c.Param("listing_id")

		var request struct {
			Quantity int64 `json:"quantity" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		p, replayed, err := h.service.BuyShares(userID, listingID, request.Quantity, idempotencyKey)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, BuyResponse{Purchase: p, Replayed: replayed})
	}
}

// ListPurchasesHandler handles GET requests for the caller's purchases
func (h *GinHandlers) ListPurchasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		purchases, err := h.service.ListPurchases(userID)
		response.Handle(c, purchases, err)
	}
}
