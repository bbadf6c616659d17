package wallet

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reconciler periodically recomputes platform wallet projections from the
// entry sum. Platform wallets take fee entries from every trade without a
// projection update in the request path, so the cached balance is allowed
// to lag until the next sweep.
type Reconciler struct {
	db       *Database
	interval time.Duration
}

func NewReconciler(db *Database) *Reconciler {
	return &Reconciler{
		db:       db,
		interval: time.Minute,
	}
}

// Start begins the reconciliation loop
func (r *Reconciler) Start(ctx context.Context) {
	logger := log.With().Str("component", "wallet_reconciler").Logger()
	logger.Info().Msg("starting wallet reconciler")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down wallet reconciler")
			return
		case <-ticker.C:
			if err := r.ReconcileOnce(); err != nil {
				logger.Error().Err(err).Msg("failed to reconcile platform wallets")
			}
		}
	}
}

// ReconcileOnce recomputes every platform wallet's projection.
func (r *Reconciler) ReconcileOnce() error {
	logger := log.With().Str("component", "wallet_reconciler").Logger()

	wallets, err := r.db.GetPlatformWallets()
	if err != nil {
		return err
	}

	for _, w := range wallets {
		sum, err := r.db.SumEntries(w.WalletID)
		if err != nil {
			logger.Error().Err(err).Str("wallet_id", w.WalletID).Msg("failed to sum ledger entries")
			continue
		}
		if sum == w.BalanceCents {
			continue
		}
		if err := r.db.SetBalance(w.WalletID, sum); err != nil {
			logger.Error().Err(err).Str("wallet_id", w.WalletID).Msg("failed to update balance projection")
			continue
		}
		logger.Info().
			Str("wallet_id", w.WalletID).
			Int64("previous_cents", w.BalanceCents).
			Int64("reconciled_cents", sum).
			Msg("reconciled platform wallet projection")
	}

	return nil
}
