package wallet_test

import (
	"errors"
	"testing"

	"github.com/Cardboom/cardboomtest-sub000/internal/testutil"
	"github.com/Cardboom/cardboomtest-sub000/internal/types"
	"github.com/Cardboom/cardboomtest-sub000/internal/wallet"
)

func TestEnsureWallet_ProvisionsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w1, err := svc.EnsureWallet("alice", "")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if w1.Currency != wallet.DefaultCurrency {
		t.Errorf("currency = %q, want %q", w1.Currency, wallet.DefaultCurrency)
	}
	if w1.WalletType != wallet.TypeUser {
		t.Errorf("wallet type = %q, want %q", w1.WalletType, wallet.TypeUser)
	}

	w2, err := svc.EnsureWallet("alice", "")
	if err != nil {
		t.Fatalf("EnsureWallet (second): %v", err)
	}
	if w2.WalletID != w1.WalletID {
		t.Errorf("second EnsureWallet returned a different wallet: %s vs %s", w2.WalletID, w1.WalletID)
	}
}

func TestEnsureWallet_PlatformType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, err := svc.EnsureWallet(wallet.PlatformUserID, "")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if w.WalletType != wallet.TypePlatform {
		t.Errorf("platform wallet type = %q, want %q", w.WalletType, wallet.TypePlatform)
	}
}

func TestPostEntry_TopUpIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, err := svc.EnsureWallet("alice", "")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}

	req := wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     5000,
		EntryType:      wallet.EntryTypeTopUp,
		IdempotencyKey: "topup-1",
	}

	entry1, replayed, err := svc.PostEntry(req)
	if err != nil {
		t.Fatalf("PostEntry: %v", err)
	}
	if replayed {
		t.Error("first posting reported as replayed")
	}

	// Same key again: no new entry, no second credit.
	entry2, replayed, err := svc.PostEntry(req)
	if err != nil {
		t.Fatalf("PostEntry (replay): %v", err)
	}
	if !replayed {
		t.Error("second posting not reported as replayed")
	}
	if entry2.EntryID != entry1.EntryID {
		t.Errorf("replay returned a different entry: %s vs %s", entry2.EntryID, entry1.EntryID)
	}

	balance, err := svc.GetBalance(w.WalletID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.BalanceCents != 5000 {
		t.Errorf("balance = %d, want 5000", balance.BalanceCents)
	}

	ledger, err := svc.GetLedger(w.WalletID)
	if err != nil {
		t.Fatalf("GetLedger: %v", err)
	}
	if len(ledger) != 1 {
		t.Errorf("ledger has %d entries, want 1", len(ledger))
	}
}

func TestPostEntry_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, _ := svc.EnsureWallet("bob", "")
	if _, _, err := svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     1000,
		EntryType:      wallet.EntryTypeTopUp,
		IdempotencyKey: "topup-bob",
	}); err != nil {
		t.Fatalf("top up: %v", err)
	}

	_, _, err := svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     -1001,
		EntryType:      wallet.EntryTypePurchase,
		IdempotencyKey: "debit-bob",
	})
	if !errors.Is(err, types.ErrInsufficientFunds) {
		t.Fatalf("overdraw error = %v, want ErrInsufficientFunds", err)
	}

	// The failed debit must leave no trace in the ledger or the balance.
	balance, _ := svc.GetBalance(w.WalletID)
	if balance.BalanceCents != 1000 {
		t.Errorf("balance = %d, want 1000", balance.BalanceCents)
	}
	ledger, _ := svc.GetLedger(w.WalletID)
	if len(ledger) != 1 {
		t.Errorf("ledger has %d entries, want 1", len(ledger))
	}
}

func TestPostEntry_ExactBalanceToZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, _ := svc.EnsureWallet("carol", "")
	svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     2500,
		EntryType:      wallet.EntryTypeTopUp,
		IdempotencyKey: "topup-carol",
	})

	if _, _, err := svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     -2500,
		EntryType:      wallet.EntryTypePurchase,
		IdempotencyKey: "debit-carol",
	}); err != nil {
		t.Fatalf("spending the exact balance should succeed: %v", err)
	}

	balance, _ := svc.GetBalance(w.WalletID)
	if balance.BalanceCents != 0 {
		t.Errorf("balance = %d, want 0", balance.BalanceCents)
	}
}

func TestPostEntry_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)
	w, _ := svc.EnsureWallet("dave", "")

	cases := []struct {
		name string
		req  wallet.EntryRequest
	}{
		{"missing key", wallet.EntryRequest{WalletID: w.WalletID, DeltaCents: 100, EntryType: wallet.EntryTypeTopUp}},
		{"zero delta", wallet.EntryRequest{WalletID: w.WalletID, DeltaCents: 0, EntryType: wallet.EntryTypeTopUp, IdempotencyKey: "k1"}},
		{"missing type", wallet.EntryRequest{WalletID: w.WalletID, DeltaCents: 100, IdempotencyKey: "k2"}},
		{"currency mismatch", wallet.EntryRequest{WalletID: w.WalletID, DeltaCents: 100, Currency: "EUR", EntryType: wallet.EntryTypeTopUp, IdempotencyKey: "k3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.PostEntry(tc.req); !types.IsValidation(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestPostEntry_KeyBoundToDifferentPostingRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, _ := svc.EnsureWallet("heidi", "")
	if _, _, err := svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     5000,
		EntryType:      wallet.EntryTypeTopUp,
		IdempotencyKey: "heidi-key",
	}); err != nil {
		t.Fatalf("top up: %v", err)
	}

	// The same key presented for a different posting is a reuse, not a
	// retry. Treating it as a replay would skip the debit entirely.
	_, _, err := svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     -3000,
		EntryType:      wallet.EntryTypePurchase,
		ReferenceType:  "share_listing",
		ReferenceID:    "LST_other",
		IdempotencyKey: "heidi-key",
	})
	if !types.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}

	balance, _ := svc.GetBalance(w.WalletID)
	if balance.BalanceCents != 5000 {
		t.Errorf("balance = %d, want 5000", balance.BalanceCents)
	}
	ledger, _ := svc.GetLedger(w.WalletID)
	if len(ledger) != 1 {
		t.Errorf("ledger has %d entries, want 1", len(ledger))
	}
}

func TestPostEntry_UnknownWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	_, _, err := svc.PostEntry(wallet.EntryRequest{
		WalletID:       "WAL_missing",
		DeltaCents:     100,
		EntryType:      wallet.EntryTypeTopUp,
		IdempotencyKey: "k-missing",
	})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestBalanceEqualsEntrySum(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, _ := svc.EnsureWallet("erin", "")
	deltas := []int64{10000, -2500, -1500, 300}
	for i, d := range deltas {
		entryType := wallet.EntryTypeTopUp
		if d < 0 {
			entryType = wallet.EntryTypePurchase
		}
		if _, _, err := svc.PostEntry(wallet.EntryRequest{
			WalletID:       w.WalletID,
			DeltaCents:     d,
			EntryType:      entryType,
			IdempotencyKey: "erin-" + string(rune('a'+i)),
		}); err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
	}

	var sum int64
	ledger, err := svc.GetLedger(w.WalletID)
	if err != nil {
		t.Fatalf("GetLedger: %v", err)
	}
	for _, e := range ledger {
		sum += e.DeltaCents
	}

	balance, _ := svc.GetBalance(w.WalletID)
	if balance.BalanceCents != sum {
		t.Errorf("balance %d does not equal entry sum %d", balance.BalanceCents, sum)
	}
	if sum != 6300 {
		t.Errorf("entry sum = %d, want 6300", sum)
	}
}

func TestReverseEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, _ := svc.EnsureWallet("frank", "")
	svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     8000,
		EntryType:      wallet.EntryTypeTopUp,
		IdempotencyKey: "frank-topup",
	})
	svc.PostEntry(wallet.EntryRequest{
		WalletID:       w.WalletID,
		DeltaCents:     -3000,
		EntryType:      wallet.EntryTypePurchase,
		IdempotencyKey: "frank-buy",
	})

	rev, replayed, err := svc.ReverseEntry("frank-buy")
	if err != nil {
		t.Fatalf("ReverseEntry: %v", err)
	}
	if replayed {
		t.Error("first reversal reported as replayed")
	}
	if rev.DeltaCents != 3000 {
		t.Errorf("reversal delta = %d, want 3000", rev.DeltaCents)
	}
	if rev.EntryType != wallet.EntryTypeReversal {
		t.Errorf("reversal type = %q, want %q", rev.EntryType, wallet.EntryTypeReversal)
	}

	// Reversing twice must not double-credit.
	rev2, replayed, err := svc.ReverseEntry("frank-buy")
	if err != nil {
		t.Fatalf("ReverseEntry (replay): %v", err)
	}
	if !replayed {
		t.Error("second reversal not reported as replayed")
	}
	if rev2.EntryID != rev.EntryID {
		t.Errorf("replayed reversal is a different entry")
	}

	balance, _ := svc.GetBalance(w.WalletID)
	if balance.BalanceCents != 8000 {
		t.Errorf("balance after reversal = %d, want 8000", balance.BalanceCents)
	}
}

func TestReverseEntry_UnknownKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	if _, _, err := svc.ReverseEntry("no-such-key"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestPlatformWallet_ReconcilerRecomputesBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	w, err := svc.EnsureWallet(wallet.PlatformUserID, "")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}

	// Fee postings to the platform wallet skip the projection.
	for i, fee := range []int64{250, 125, 75} {
		if _, _, err := svc.PostEntry(wallet.EntryRequest{
			WalletID:       w.WalletID,
			DeltaCents:     fee,
			EntryType:      wallet.EntryTypeFee,
			IdempotencyKey: "fee-" + string(rune('a'+i)),
		}); err != nil {
			t.Fatalf("fee entry %d: %v", i, err)
		}
	}

	balance, _ := svc.GetBalance(w.WalletID)
	if balance.BalanceCents != 0 {
		t.Errorf("projection before reconcile = %d, want 0", balance.BalanceCents)
	}

	reconciler := wallet.NewReconciler(svc.GetDB())
	if err := reconciler.ReconcileOnce(); err != nil {
		t.Fatalf("ReconcileOnce: %v", err)
	}

	balance, _ = svc.GetBalance(w.WalletID)
	if balance.BalanceCents != 450 {
		t.Errorf("projection after reconcile = %d, want 450", balance.BalanceCents)
	}
}

func TestGetBalanceByUserID_ProvisionsWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := wallet.NewService(db)

	balance, err := svc.GetBalanceByUserID("grace")
	if err != nil {
		t.Fatalf("GetBalanceByUserID: %v", err)
	}
	if balance.BalanceCents != 0 {
		t.Errorf("fresh wallet balance = %d, want 0", balance.BalanceCents)
	}
}
