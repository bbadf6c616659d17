package shares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Cardboom/cardboomtest-sub000/internal/auth"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"github.com/Cardboom/cardboomtest-sub000/internal/wallet"
	"github.com/Cardboom/cardboomtest-sub000/pkg/response"
)

// Service manages the share issuance registry.
type Service struct {
	db *Database
}

// NewService creates a new share registry service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// CreateListing fractionalizes an asset into a fixed supply of shares.
// Total supply and share price are immutable afterwards.
func (s *Service) CreateListing(ownerID string, req CreateListingRequest) (*ShareListing, error) {
	if ownerID == "" {
		return nil, types.Validationf("owner is required")
	}
	if req.AssetRef == "" {
		return nil, types.Validationf("asset_ref is required")
	}
	if req.TotalShares <= 0 {
		return nil, types.Validationf("total_shares must be positive")
	}
	if req.SharePriceCents <= 0 {
		return nil, types.Validationf("share_price_cents must be positive")
	}
	if req.MinShares < 1 || req.MinShares > req.TotalShares {
		return nil, types.Validationf("min_shares must be between 1 and total_shares")
	}

	currency := req.Currency
	if currency == "" {
		currency = wallet.DefaultCurrency
	}

	now := time.Now()
	listing := &ShareListing{
		ListingID:                 "LST_" + uuid.New().String(),
		AssetRef:                  req.AssetRef,
		OwnerID:                   ownerID,
		TotalShares:               req.TotalShares,
		AvailableShares:           req.TotalShares,
		SharePriceCents:           req.SharePriceCents,
		MinShares:                 req.MinShares,
		Currency:                  currency,
		DailyVerificationRequired: req.DailyVerificationRequired,
		Status:                    StatusActive,
		VerificationStatus:        VerificationNotRequired,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	if req.DailyVerificationRequired {
		listing.LastVerifiedAt = now
		listing.VerificationStatus = VerificationVerified
	}

	if err := s.db.CreateListing(listing); err != nil {
		return nil, err
	}

	log.Info().
		Str("listing_id", listing.ListingID).
		Str("owner_id", ownerID).
		Str("asset_ref", listing.AssetRef).
		Int64("total_shares", listing.TotalShares).
		Int64("share_price_cents", listing.SharePriceCents).
		Msg("created share listing")

	return listing, nil
}

// GetListing retrieves a listing by its ID.
func (s *Service) GetListing(listingID string) (*ShareListing, error) {
	listing, err := s.db.GetListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, types.ErrNotFound
	}
	return listing, nil
}

// GetListingTx retrieves a listing inside an enclosing transaction.
func (s *Service) GetListingTx(tx *gorm.DB, listingID string) (*ShareListing, error) {
	listing, err := s.db.WithTx(tx).GetListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, types.ErrNotFound
	}
	return listing, nil
}

// ListActive returns all listings still open for primary purchase.
func (s *Service) ListActive() ([]ShareListing, error) {
	return s.db.ListActive()
}

// ReserveShares atomically takes quantity shares out of a listing's supply.
func (s *Service) ReserveShares(listingID string, quantity int64) error {
	if quantity <= 0 {
		return types.Validationf("quantity must be positive")
	}
	return s.db.ReserveShares(listingID, quantity)
}

// ReserveSharesTx is ReserveShares inside an enclosing transaction.
func (s *Service) ReserveSharesTx(tx *gorm.DB, listingID string, quantity int64) error {
	if quantity <= 0 {
		return types.Validationf("quantity must be positive")
	}
	return s.db.WithTx(tx).ReserveShares(listingID, quantity)
}

// ReleaseShares returns quantity shares to a listing's supply, unwinding a
// reservation whose purchase did not complete.
func (s *Service) ReleaseShares(listingID string, quantity int64) error {
	if quantity <= 0 {
		return types.Validationf("quantity must be positive")
	}
	return s.db.ReleaseShares(listingID, quantity)
}

// GetDB exposes the data layer for the verification scheduler.
func (s *Service) GetDB() *Database {
	return s.db
}

// GinHandlers contains HTTP handlers for listing endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for listing endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateListingHandler handles POST requests to fractionalize an asset
// Requires a valid JWT token; the caller becomes the listing owner
func (h *GinHandlers) CreateListingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		var req CreateListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		listing, err := h.service.CreateListing(userID, req)
		response.Handle(c, listing, err)
	}
}

// GetListingHandler handles GET requests for a single listing
func (h *GinHandlers) GetListingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		listingID := c.Param("listing_id")

		listing, err := h.service.GetListing(listingID)
		response.Handle(c, listing, err)
	}
}

// ListListingsHandler handles GET requests for active listings
func (h *GinHandlers) ListListingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		listings, err := h.service.ListActive()
		response.Handle(c, listings, err)
	}
}
