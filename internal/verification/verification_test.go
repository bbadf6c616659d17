package verification_test

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Cardboom/cardboomtest-sub000/internal/fees"
	"github.com/Cardboom/cardboomtest-sub000/internal/ownership"
	"github.com/Cardboom/cardboomtest-sub000/internal/purchase"
	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
	"github.com/Cardboom/cardboomtest-sub000/internal/testutil"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"github.com/Cardboom/cardboomtest-sub000/internal/verification"
	"github.com/Cardboom/cardboomtest-sub000/internal/wallet"
)

func createListing(t *testing.T, db *gorm.DB, requireVerification bool) *shares.ShareListing {
	t.Helper()
	listing, err := shares.NewService(db).CreateListing("owner", shares.CreateListingRequest{
		AssetRef:                  "CARD_VERIFY",
		TotalShares:               100,
		SharePriceCents:           500,
		MinShares:                 1,
		DailyVerificationRequired: requireVerification,
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	return listing
}

// backdate pushes a listing's last verification into the past.
func backdate(t *testing.T, db *gorm.DB, listingID string, age time.Duration) {
	t.Helper()
	err := db.Model(&shares.ShareListing{}).
		Where("listing_id = ?", listingID).
		UpdateColumn("last_verified_at", time.Now().Add(-age)).Error
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	now := time.Now()

	notRequired := &shares.ShareListing{DailyVerificationRequired: false}
	if got := verification.StatusOf(notRequired, now); got != shares.VerificationNotRequired {
		t.Errorf("StatusOf = %q, want %q", got, shares.VerificationNotRequired)
	}

	fresh := &shares.ShareListing{
		DailyVerificationRequired: true,
		LastVerifiedAt:            now.Add(-time.Hour),
	}
	if got := verification.StatusOf(fresh, now); got != shares.VerificationVerified {
		t.Errorf("StatusOf = %q, want %q", got, shares.VerificationVerified)
	}

	stale := &shares.ShareListing{
		DailyVerificationRequired: true,
		LastVerifiedAt:            now.Add(-verification.OverdueAfter - time.Minute),
	}
	if got := verification.StatusOf(stale, now); got != shares.VerificationOverdue {
		t.Errorf("StatusOf = %q, want %q", got, shares.VerificationOverdue)
	}
}

func TestSubmitVerification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := verification.NewService(db)
	listing := createListing(t, db, true)

	backdate(t, db, listing.ListingID, 30*time.Hour)

	status, err := svc.GetStatus(listing.ListingID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Status != shares.VerificationOverdue {
		t.Fatalf("status = %q, want %q", status.Status, shares.VerificationOverdue)
	}
	if status.OverdueBy == "" {
		t.Error("overdue status missing overdue_by")
	}

	// A fresh submission resets the clock.
	submitted, err := svc.SubmitVerification("owner", listing.ListingID)
	if err != nil {
		t.Fatalf("SubmitVerification: %v", err)
	}
	if submitted.Status != shares.VerificationVerified {
		t.Errorf("status = %q, want %q", submitted.Status, shares.VerificationVerified)
	}

	status, _ = svc.GetStatus(listing.ListingID)
	if status.Status != shares.VerificationVerified {
		t.Errorf("status after submit = %q, want %q", status.Status, shares.VerificationVerified)
	}
	if status.OverdueBy != "" {
		t.Errorf("verified status carries overdue_by %q", status.OverdueBy)
	}
}

func TestSubmitVerification_OnlyOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := verification.NewService(db)
	listing := createListing(t, db, true)

	if _, err := svc.SubmitVerification("stranger", listing.ListingID); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestSubmitVerification_NotRequired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := verification.NewService(db)
	listing := createListing(t, db, false)

	if _, err := svc.SubmitVerification("owner", listing.ListingID); !types.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestSubmitVerification_UnknownListing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := verification.NewService(db)

	if _, err := svc.SubmitVerification("owner", "LST_missing"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSweepOnce_MarksStaleListings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := verification.NewService(db)
	stale := createListing(t, db, true)
	fresh := createListing(t, db, true)
	exempt := createListing(t, db, false)

	backdate(t, db, stale.ListingID, 30*time.Hour)

	processor := verification.NewProcessor(svc.GetDB())
	if err := processor.SweepOnce(); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	registry := shares.NewService(db)
	got, _ := registry.GetListing(stale.ListingID)
	if got.VerificationStatus != shares.VerificationOverdue {
		t.Errorf("stale listing status = %q, want %q", got.VerificationStatus, shares.VerificationOverdue)
	}
	got, _ = registry.GetListing(fresh.ListingID)
	if got.VerificationStatus != shares.VerificationVerified {
		t.Errorf("fresh listing status = %q, want %q", got.VerificationStatus, shares.VerificationVerified)
	}
	got, _ = registry.GetListing(exempt.ListingID)
	if got.VerificationStatus != shares.VerificationNotRequired {
		t.Errorf("exempt listing status = %q, want %q", got.VerificationStatus, shares.VerificationNotRequired)
	}
}

func TestOverdueListingStillTrades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	listing := createListing(t, db, true)
	backdate(t, db, listing.ListingID, 30*time.Hour)

	svc := verification.NewService(db)
	processor := verification.NewProcessor(svc.GetDB())
	if err := processor.SweepOnce(); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	wallets := wallet.NewService(db)
	registry := shares.NewService(db)
	holdings := ownership.NewService(db)
	purchases := purchase.NewService(db, wallets, registry, holdings, fees.DefaultSchedule(), purchase.Config{})

	w, _ := wallets.EnsureWallet("buyer", "")
	if _, _, err := wallets.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     100000,
		EntryType:      wallet.EntryTypeTopUp,
		IdempotencyKey: "fund-buyer",
	}); err != nil {
		t.Fatalf("fund buyer: %v", err)
	}

	// Overdue is a display signal only; purchases go through.
	if _, _, err := purchases.BuyShares("buyer", listing.ListingID, 5, "buy-overdue"); err != nil {
		t.Fatalf("BuyShares on overdue listing: %v", err)
	}
}
