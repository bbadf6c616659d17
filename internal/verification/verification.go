package verification

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Cardboom/cardboomtest-sub000/internal/auth"
	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"github.com/Cardboom/cardboomtest-sub000/pkg/response"
)

// OverdueAfter is how long a verification stays fresh. Listings flagged for
// daily verification flip to OVERDUE once this elapses.
const OverdueAfter = 24 * time.Hour

// StatusResponse reports a listing's proof-of-possession state. Overdue is
// a display-only signal: it does not block purchases or resale.
type StatusResponse struct {
	ListingID      string    `json:"listing_id"`
	Required       bool      `json:"required"`
	Status         string    `json:"status"`
	LastVerifiedAt time.Time `json:"last_verified_at"`
	OverdueBy      string    `json:"overdue_by,omitempty"`
}

// Service tracks proof-of-possession freshness on share listings.
type Service struct {
	db *shares.Database
}

// NewService creates a new verification service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: shares.NewDatabase(gormDB),
	}
}

// StatusOf derives a listing's verification state at the given instant.
func StatusOf(listing *shares.ShareListing, now time.Time) string {
	if !listing.DailyVerificationRequired {
		return shares.VerificationNotRequired
	}
	if now.Sub(listing.LastVerifiedAt) >= OverdueAfter {
		return shares.VerificationOverdue
	}
	return shares.VerificationVerified
}

// SubmitVerification records a fresh proof of possession. Only the listing
// owner may submit.
func (s *Service) SubmitVerification(ownerID, listingID string) (*StatusResponse, error) {
	listing, err := s.db.GetListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, types.ErrNotFound
	}
	if listing.OwnerID != ownerID {
		return nil, types.ErrForbidden
	}
	if !listing.DailyVerificationRequired {
		return nil, types.Validationf("listing does not require verification")
	}

	now := time.Now()
	if err := s.db.UpdateVerification(listingID, shares.VerificationVerified, map[string]interface{}{
		"last_verified_at": now,
		"updated_at":       now,
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("listing_id", listingID).
		Str("owner_id", ownerID).
		Msg("verification submitted")

	return &StatusResponse{
		ListingID:      listingID,
		Required:       true,
		Status:         shares.VerificationVerified,
		LastVerifiedAt: now,
	}, nil
}

// GetStatus reports a listing's verification state, derived live rather
// than from the stored column so it is exact between sweeps.
func (s *Service) GetStatus(listingID string) (*StatusResponse, error) {
	listing, err := s.db.GetListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, types.ErrNotFound
	}

	now := time.Now()
	resp := &StatusResponse{
		ListingID:      listingID,
		Required:       listing.DailyVerificationRequired,
		Status:         StatusOf(listing, now),
		LastVerifiedAt: listing.LastVerifiedAt,
	}
	if resp.Status == shares.VerificationOverdue {
		resp.OverdueBy = (now.Sub(listing.LastVerifiedAt) - OverdueAfter).Round(time.Second).String()
	}
	return resp, nil
}

// GetDB exposes the data layer for the processor.
func (s *Service) GetDB() *shares.Database {
	return s.db
}

// GinHandlers contains HTTP handlers for verification endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for verification endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// SubmitVerificationHandler handles POST requests to record a verification
func (h *GinHandlers) SubmitVerificationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		listingID := c.Param("listing_id")

		status, err := h.service.SubmitVerification(userID, listingID)
		response.Handle(c, status, err)
	}
}

// GetStatusHandler handles GET requests for a listing's verification state
func (h *GinHandlers) GetStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		listingID := c.Param("listing_id")

		status, err := h.service.GetStatus(listingID)
		response.Handle(c, status, err)
	}
}
