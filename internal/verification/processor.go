package verification

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Cardboom/cardboomtest-sub000/internal/shares"
)

// Processor periodically sweeps listings whose daily verification has gone
// stale and flips their stored status to OVERDUE. The status is a soft
// signal for the UI; trading continues regardless.
type Processor struct {
	db           *shares.Database
	sweepDelay   time.Duration
	overdueAfter time.Duration
}

func NewProcessor(db *shares.Database) *Processor {
	return &Processor{
		db:           db,
		sweepDelay:   5 * time.Minute,
		overdueAfter: OverdueAfter,
	}
}

// Start begins the verification sweep loop
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "verification_processor").Logger()
	logger.Info().Msg("starting verification processor")

	ticker := time.NewTicker(p.sweepDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down verification processor")
			return
		case <-ticker.C:
			if err := p.SweepOnce(); err != nil {
				logger.Error().Err(err).Msg("failed to sweep overdue verifications")
			}
		}
	}
}

// SweepOnce marks every stale verification overdue.
func (p *Processor) SweepOnce() error {
	logger := log.With().Str("component", "verification_processor").Logger()

	cutoff := time.Now().Add(-p.overdueAfter)
	affected, err := p.db.MarkOverdue(cutoff)
	if err != nil {
		return err
	}
	if affected > 0 {
		logger.Info().Int64("overdue_count", affected).Msg("marked verifications overdue")
	}
	return nil
}
