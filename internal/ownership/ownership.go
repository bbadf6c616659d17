package ownership

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Cardboom/cardboomtest-sub000/internal/auth"
	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"github.com/Cardboom/cardboomtest-sub000/pkg/response"
)

// ListedSharesFunc reports how many of a user's shares in a listing are
// locked in active resale offers. Wired in at startup to avoid a dependency
// on the secondary market package.
type ListedSharesFunc func(userID, listingID string) (int64, error)

// Service manages per-(user, listing) stakes.
type Service struct {
	db           *Database
	listings     *shares.Database
	listedShares ListedSharesFunc
}

// NewService creates a new ownership service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		listings: shares.NewDatabase(gormDB),
	}
}

// SetListedSharesFunc wires in the secondary market's lock-up lookup for
// portfolio summaries.
func (s *Service) SetListedSharesFunc(fn ListedSharesFunc) {
	s.listedShares = fn
}

// GetOwnership returns a user's stake in a listing, or nil when none exists.
func (s *Service) GetOwnership(userID, listingID string) (*Ownership, error) {
	return s.db.GetOwnership(userID, listingID)
}

// GetOwnershipTx is GetOwnership inside an enclosing transaction.
func (s *Service) GetOwnershipTx(tx *gorm.DB, userID, listingID string) (*Ownership, error) {
	return s.db.WithTx(tx).GetOwnership(userID, listingID)
}

// CreditOwnershipTx adds shares and cost basis to a stake, creating the row
// on a user's first purchase of the listing.
func (s *Service) CreditOwnershipTx(tx *gorm.DB, userID, listingID string, sharesBought, costCents int64) error {
	if sharesBought <= 0 {
		return types.Validationf("shares must be positive")
	}
	if costCents < 0 {
		return types.Validationf("cost must be non-negative")
	}
	return s.db.WithTx(tx).Credit(userID, listingID, sharesBought, costCents)
}

// DebitOwnershipTx removes shares from a stake, failing when the user does
// not hold enough. The cost basis shrinks proportionally (average cost);
// the row is deleted when the stake reaches zero.
func (s *Service) DebitOwnershipTx(tx *gorm.DB, userID, listingID string, sharesSold int64) error {
	if sharesSold <= 0 {
		return types.Validationf("shares must be positive")
	}

	db := s.db.WithTx(tx)
	row, err := db.GetOwnership(userID, listingID)
	if err != nil {
		return err
	}
	if row == nil || row.SharesOwned < sharesSold {
		return types.ErrInsufficientShares
	}

	investedDelta := row.TotalInvestedCents * sharesSold / row.SharesOwned
	if sharesSold == row.SharesOwned {
		investedDelta = row.TotalInvestedCents
	}

	updated, err := db.Debit(userID, listingID, sharesSold, investedDelta)
	if err != nil {
		// A concurrent debit won the conditional update.
		if err == gorm.ErrRecordNotFound {
			return types.ErrInsufficientShares
		}
		return err
	}

	event := log.Info().
		Str("user_id", userID).
		Str("listing_id", listingID).
		Int64("shares_sold", sharesSold)
	if updated == nil {
		event.Msg("stake fully exited")
	} else {
		event.Int64("shares_remaining", updated.SharesOwned).Msg("debited stake")
	}

	return nil
}

// GetOwnershipSummary builds a user's portfolio projection across all
// listings they hold shares in.
func (s *Service) GetOwnershipSummary(userID string) (*Summary, error) {
	rows, err := s.db.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		UserID:   userID,
		Holdings: make([]Holding, 0, len(rows)),
	}

	for _, row := range rows {
		holding := Holding{
			ListingID:          row.ListingID,
			SharesOwned:        row.SharesOwned,
			TotalInvestedCents: row.TotalInvestedCents,
		}

		listing, err := s.listings.GetListing(row.ListingID)
		if err != nil {
			return nil, err
		}
		if listing != nil {
			holding.AssetRef = listing.AssetRef
			holding.SharePriceCents = listing.SharePriceCents
			holding.CurrentValueCents = row.SharesOwned * listing.SharePriceCents
		}

		if s.listedShares != nil {
			listed, err := s.listedShares(userID, row.ListingID)
			if err != nil {
				return nil, err
			}
			holding.SharesListed = listed
		}

		summary.Holdings = append(summary.Holdings, holding)
		summary.TotalInvestedCents += holding.TotalInvestedCents
		summary.TotalValueCents += holding.CurrentValueCents
	}

	return summary, nil
}

// GinHandlers contains HTTP handlers for portfolio endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for portfolio endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetPortfolioHandler handles GET requests for the caller's holdings
func (h *GinHandlers) GetPortfolioHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		summary, err := h.service.GetOwnershipSummary(userID)
		response.Handle(c, summary, err)
	}
}
