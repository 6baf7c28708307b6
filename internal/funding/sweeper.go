package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/points-app/points_app/internal/ledger"
)

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Expired      int64
	Reverified   int
	Succeeded    int
	Failed       int
	StillPending int
}

// Sweep reconciles pending transactions older than PendingExpiry: rows that
// never received a gateway reference are failed, referenced rows are
// re-verified against the gateway.
func (s *Service) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	cutoff := s.now().Add(-s.opts.PendingExpiry)

	expired, err := s.ledger.ExpireOrphans(ctx, cutoff)
	if err != nil {
		s.logger.Error("expire orphaned transactions", slog.Any("error", err))
		return report, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}
	report.Expired = expired

	stale, err := s.ledger.StalePending(ctx, cutoff, s.opts.SweepBatch)
	if err != nil {
		s.logger.Error("list stale transactions", slog.Any("error", err))
		return report, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}

	for _, tx := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Reverified++
		res, err := s.Verify(ctx, tx.ReferenceValue())
		if err == nil && res.Status.Terminal() {
			if res.Status == ledger.StatusSuccess {
				report.Succeeded++
			} else {
				report.Failed++
			}
			continue
		}
		report.StillPending++
		// Rotate the row behind unchecked ones so it cannot pin the batch.
		if err := s.ledger.MarkChecked(ctx, tx.ID); err != nil {
			s.logger.Warn("mark transaction checked", slog.String("transaction_id", tx.ID), slog.Any("error", err))
		}
	}

	if report.Expired > 0 || report.Reverified > 0 {
		s.logger.Info("sweep completed",
			slog.Int64("expired", report.Expired),
			slog.Int("reverified", report.Reverified),
			slog.Int("succeeded", report.Succeeded),
			slog.Int("failed", report.Failed),
			slog.Int("still_pending", report.StillPending),
		)
	}
	return report, nil
}

// Sweeper runs Sweep on a fixed interval.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper builds a sweeper. A non-positive interval disables it.
func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.service.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("sweep failed", slog.Any("error", err))
			}
		}
	}
}
