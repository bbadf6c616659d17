package shares_test

import (
	"errors"
	"testing"

	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
	"github.com/Cardboom/cardboomtest-sub000/internal/testutil"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
)

func newListing(t *testing.T, svc *shares.Service, total, price, min int64) *shares.ShareListing {
	t.Helper()
	listing, err := svc.CreateListing("owner", shares.CreateListingRequest{
		AssetRef:        "CARD_TEST",
		TotalShares:     total,
		SharePriceCents: price,
		MinShares:       min,
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	return listing
}

func TestCreateListing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)

	listing := newListing(t, svc, 100, 500, 2)
	if listing.AvailableShares != 100 {
		t.Errorf("available = %d, want 100", listing.AvailableShares)
	}
	if listing.Status != shares.StatusActive {
		t.Errorf("status = %q, want %q", listing.Status, shares.StatusActive)
	}
	if listing.VerificationStatus != shares.VerificationNotRequired {
		t.Errorf("verification = %q, want %q", listing.VerificationStatus, shares.VerificationNotRequired)
	}
}

func TestCreateListing_VerificationRequired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)

	listing, err := svc.CreateListing("owner", shares.CreateListingRequest{
		AssetRef:                  "CARD_GRADED",
		TotalShares:               50,
		SharePriceCents:           1000,
		MinShares:                 1,
		DailyVerificationRequired: true,
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	if listing.VerificationStatus != shares.VerificationVerified {
		t.Errorf("verification = %q, want %q", listing.VerificationStatus, shares.VerificationVerified)
	}
	if listing.LastVerifiedAt.IsZero() {
		t.Error("last_verified_at not initialized")
	}
}

func TestCreateListing_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)

	cases := []struct {
		name string
		req  shares.CreateListingRequest
	}{
		{"zero total", shares.CreateListingRequest{AssetRef: "A", TotalShares: 0, SharePriceCents: 100, MinShares: 1}},
		{"zero price", shares.CreateListingRequest{AssetRef: "A", TotalShares: 10, SharePriceCents: 0, MinShares: 1}},
		{"zero min", shares.CreateListingRequest{AssetRef: "A", TotalShares: 10, SharePriceCents: 100, MinShares: 0}},
		{"min above total", shares.CreateListingRequest{AssetRef: "A", TotalShares: 10, SharePriceCents: 100, MinShares: 11}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateListing("owner", tc.req); !types.IsValidation(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestGetListing_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)

	if _, err := svc.GetListing("LST_missing"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestReserveShares(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)
	listing := newListing(t, svc, 10, 100, 1)

	if err := svc.ReserveShares(listing.ListingID, 4); err != nil {
		t.Fatalf("ReserveShares: %v", err)
	}

	got, _ := svc.GetListing(listing.ListingID)
	if got.AvailableShares != 6 {
		t.Errorf("available = %d, want 6", got.AvailableShares)
	}
	if got.Status != shares.StatusActive {
		t.Errorf("status = %q, want %q", got.Status, shares.StatusActive)
	}
}

func TestReserveShares_Oversold(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)
	listing := newListing(t, svc, 10, 100, 1)

	if err := svc.ReserveShares(listing.ListingID, 11); !errors.Is(err, types.ErrOversold) {
		t.Fatalf("error = %v, want ErrOversold", err)
	}

	// Supply untouched after the failed reservation.
	got, _ := svc.GetListing(listing.ListingID)
	if got.AvailableShares != 10 {
		t.Errorf("available = %d, want 10", got.AvailableShares)
	}
}

func TestReserveShares_SoldOutAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)
	listing := newListing(t, svc, 5, 100, 1)

	if err := svc.ReserveShares(listing.ListingID, 5); err != nil {
		t.Fatalf("ReserveShares: %v", err)
	}

	got, _ := svc.GetListing(listing.ListingID)
	if got.AvailableShares != 0 {
		t.Errorf("available = %d, want 0", got.AvailableShares)
	}
	if got.Status != shares.StatusSoldOut {
		t.Errorf("status = %q, want %q", got.Status, shares.StatusSoldOut)
	}

	// A sold-out listing rejects further reservations.
	if err := svc.ReserveShares(listing.ListingID, 1); !errors.Is(err, types.ErrOversold) {
		t.Fatalf("error = %v, want ErrOversold", err)
	}
}

func TestReserveShares_UnknownListing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)

	if err := svc.ReserveShares("LST_missing", 1); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestReleaseShares_RestoresActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)
	listing := newListing(t, svc, 5, 100, 1)

	if err := svc.ReserveShares(listing.ListingID, 5); err != nil {
		t.Fatalf("ReserveShares: %v", err)
	}
	if err := svc.ReleaseShares(listing.ListingID, 2); err != nil {
		t.Fatalf("ReleaseShares: %v", err)
	}

	got, _ := svc.GetListing(listing.ListingID)
	if got.AvailableShares != 3 {
		t.Errorf("available = %d, want 3", got.AvailableShares)
	}
	if got.Status != shares.StatusActive {
		t.Errorf("status = %q, want %q", got.Status, shares.StatusActive)
	}
}

func TestListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := shares.NewService(db)

	newListing(t, svc, 10, 100, 1)
	soldOut := newListing(t, svc, 5, 100, 1)
	if err := svc.ReserveShares(soldOut.ListingID, 5); err != nil {
		t.Fatalf("ReserveShares: %v", err)
	}

	active, err := svc.ListActive()
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("got %d active listings, want 1", len(active))
	}
	if active[0].ListingID == soldOut.ListingID {
		t.Error("sold-out listing returned as active")
	}
}
