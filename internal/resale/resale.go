package resale

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

// Service manages the secondary market: offers against already-owned shares
// and their fills. Fills move shares between ownership rows and money
// between wallets in one transaction; the primary supply is untouched.
type Service struct {
	gormDB   *gorm.DB
	db       *Database
	wallets  *wallet.Service
	holdings *ownership.Service
	registry *shares.Service
	fees     fees.Schedule
}

// NewService creates a new secondary-market service over the given services.
func NewService(gormDB *gorm.DB, wallets *wallet.Service, holdings *ownership.Service, registry *shares.Service, schedule fees.Schedule) *Service {
	return &Service{
		gormDB:   gormDB,
		db:       NewDatabase(gormDB),
		wallets:  wallets,
		holdings: holdings,
		registry: registry,
		fees:     schedule,
	}
}

// ListSharesForSale creates an offer to sell sharesToList shares of a
// listing. Across all the seller's active offers for the listing, the
// listed total can never exceed what they hold.
func (s *Service) ListSharesForSale(sellerID, listingID string, sharesToList, pricePerShareCents int64) (*ResaleListing, error) {
	if sharesToList <= 0 {
		return nil, types.Validationf("shares must be positive")
	}
	if pricePerShareCents <= 0 {
		return nil, types.Validationf("price_per_share_cents must be positive")
	}

	var offer *ResaleListing
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.registry.GetListingTx(tx, listingID); err != nil {
			return err
		}

		held, err := s.holdings.GetOwnershipTx(tx, sellerID, listingID)
		if err != nil {
			return err
		}
		if held == nil {
			return types.ErrInsufficientShares
		}

		db := s.db.WithTx(tx)
		alreadyListed, err := db.ActiveListedShares(sellerID, listingID)
		if err != nil {
			return err
		}
		if alreadyListed+sharesToList > held.SharesOwned {
			return types.ErrInsufficientShares
		}

		offer = &ResaleListing{
			ResaleID:           "RSL_" + uuid.New().String(),
			ListingID:          listingID,
			SellerID:           sellerID,
			SharesForSale:      sharesToList,
			PricePerShareCents: pricePerShareCents,
			Status:             StatusActive,
			CreatedAt:          time.Now(),
			UpdatedAt:          time.Now(),
		}
		return db.CreateResaleListing(offer)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("resale_id", offer.ResaleID).
		Str("seller_id", sellerID).
		Str("listing_id", listingID).
		Int64("shares", sharesToList).
		Int64("price_per_share_cents", pricePerShareCents).
		Msg("created resale listing")

	return offer, nil
}

// BuyResaleShares fills quantity shares of an offer for the buyer. Partial
// fills are allowed; the offer closes at zero. Replaying the idempotency
// key returns the recorded trade with no new effects.
func (s *Service) BuyResaleShares(buyerID, resaleID string, quantity int64, idempotencyKey string) (*ResaleTrade, bool, error) {
	logger := log.With().
		Str("buyer_id", buyerID).
		Str("resale_id", resaleID).
		Int64("quantity", quantity).
		Str("service", "resale").
		Logger()

	if idempotencyKey == "" {
		return nil, false, types.Validationf("idempotency key is required")
	}
	if quantity <= 0 {
		return nil, false, types.Validationf("quantity must be positive")
	}

	var (
		trade    *ResaleTrade
		replayed bool
	)
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		db := s.db.WithTx(tx)

		if prior, err := db.GetTradeByIdempotencyKey(idempotencyKey); err != nil {
			return err
		} else if prior != nil {
			trade = prior
			replayed = true
			return nil
		}

		offer, err := db.GetResaleListing(resaleID)
		if err != nil {
			return err
		}
		if offer == nil {
			return types.ErrNotFound
		}
		if offer.Status != StatusActive {
			return types.Validationf("resale listing is not active")
		}
		if offer.SellerID == buyerID {
			return types.Validationf("cannot buy your own resale listing")
		}
		if quantity > offer.SharesForSale {
			return types.ErrOversold
		}

		listing, err := s.registry.GetListingTx(tx, offer.ListingID)
		if err != nil {
			return err
		}

		gross := quantity * offer.PricePerShareCents
		fee := s.fees.PlatformFee(gross)

		buyerWallet, err := s.wallets.EnsureWalletTx(tx, buyerID, listing.Currency)
		if err != nil {
			return err
		}
		if _, _, err := s.wallets.PostEntryTx(tx, wallet.EntryRequest{
			WalletID:       buyerWallet.WalletID,
			DeltaCents:     -gross,
			Currency:       listing.Currency,
			EntryType:      wallet.EntryTypePurchase,
			ReferenceType:  "resale_listing",
			ReferenceID:    resaleID,
			IdempotencyKey: idempotencyKey,
		}); err != nil {
			return err
		}

		sellerWallet, err := s.wallets.EnsureWalletTx(tx, offer.SellerID, listing.Currency)
		if err != nil {
			return err
		}
		if _, _, err := s.wallets.PostEntryTx(tx, wallet.EntryRequest{
			WalletID:       sellerWallet.WalletID,
			DeltaCents:     gross - fee,
			Currency:       listing.Currency,
			EntryType:      wallet.EntryTypeSaleProceeds,
			ReferenceType:  "resale_listing",
			ReferenceID:    resaleID,
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
				ReferenceType:  "resale_listing",
				ReferenceID:    resaleID,
				IdempotencyKey: idempotencyKey + "_fee",
			}); err != nil {
				return err
			}
		}

		if err := s.holdings.DebitOwnershipTx(tx, offer.SellerID, offer.ListingID, quantity); err != nil {
			return err
		}
		if err := s.holdings.CreditOwnershipTx(tx, buyerID, offer.ListingID, quantity, gross); err != nil {
			return err
		}

		if err := db.DecrementShares(resaleID, quantity); err != nil {
			return err
		}

		trade = &ResaleTrade{
			TradeID:        "TRD_" + uuid.New().String(),
			IdempotencyKey: idempotencyKey,
			ResaleID:       resaleID,
			ListingID:      offer.ListingID,
			BuyerID:        buyerID,
			SellerID:       offer.SellerID,
			Quantity:       quantity,
			GrossCents:     gross,
			FeeCents:       fee,
			CreatedAt:      time.Now(),
		}
		return db.CreateTrade(trade)
	})
	if err != nil {
		logger.Error().Err(err).Msg("resale purchase failed")
		return nil, false, err
	}

	if replayed {
		logger.Info().Str("trade_id", trade.TradeID).Msg("replayed resale trade")
	} else {
		logger.Info().
			Str("trade_id", trade.TradeID).
			Int64("gross_cents", trade.GrossCents).
			Int64("fee_cents", trade.FeeCents).
			Msg("resale trade completed")
	}

	return trade, replayed, nil
}

// CancelResaleListing closes an active offer. The listed shares never left
// the seller's ownership row, so their tradable count is restored exactly
// by releasing the lock-up.
func (s *Service) CancelResaleListing(sellerID, resaleID string) (*ResaleListing, error) {
	var offer *ResaleListing
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		db := s.db.WithTx(tx)
		if err := db.Cancel(resaleID, sellerID); err != nil {
			return err
		}
		var err error
		offer, err = db.GetResaleListing(resaleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("resale_id", resaleID).
		Str("seller_id", sellerID).
		Msg("cancelled resale listing")

	return offer, nil
}

// GetResaleListing retrieves an offer by ID.
func (s *Service) GetResaleListing(resaleID string) (*ResaleListing, error) {
	offer, err := s.db.GetResaleListing(resaleID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, types.ErrNotFound
	}
	return offer, nil
}

// ListActiveByListing returns a listing's open offers, cheapest first.
func (s *Service) ListActiveByListing(listingID string) ([]ResaleListing, error) {
	return s.db.ListActiveByListing(listingID)
}

// ActiveListedShares reports a seller's lock-up for one listing, for the
// portfolio summary.
func (s *Service) ActiveListedShares(sellerID, listingID string) (int64, error) {
	return s.db.ActiveListedShares(sellerID, listingID)
}

// GinHandlers contains HTTP handlers for secondary-market endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for secondary-market endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateResaleHandler handles POST requests to list shares for resale
func (h *GinHandlers) CreateResaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		var req CreateResaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		offer, err := h.service.ListSharesForSale(userID, req.ListingID, req.Shares, req.PricePerShareCents)
		response.Handle(c, offer, err)
	}
}

// ListResaleHandler handles GET requests for a listing's open offers
func (h *GinHandlers) ListResaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		listingID := c.Query("listing_id")
		if listingID == "" {
			response.BadRequest(c, "listing_id query parameter is required")
			return
		}

		offers, err := h.service.ListActiveByListing(listingID)
		response.Handle(c, offers, err)
	}
}

// BuyResaleHandler handles POST requests to buy from a resale listing
// Requires a valid JWT token and idempotency key in headers
func (h *GinHandlers) BuyResaleHandler() gin.HandlerFunc {
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

		resaleID := c.Param("resale_id")

		var request struct {
			Quantity int64 `json:"quantity" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, replayed, err := h.service.BuyResaleShares(userID, resaleID, request.Quantity, idempotencyKey)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, TradeResponse{Trade: trade, Replayed: replayed})
	}
}

// CancelResaleHandler handles POST requests to cancel a resale listing
func (h *GinHandlers) CancelResaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		resaleID := c.Param("resale_id")

		offer, err := h.service.CancelResaleListing(userID, resaleID)
		response.Handle(c, offer, err)
	}
}
