package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/metrics"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/models"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/repository"
	"github.com/rs/zerolog"
)

// Sweeper reclaims slots left claimed by clients who never finished payment.
// A pending_payment appointment is a time-boxed lease on its slot; once the
// lease expires the appointment is cancelled and the slot released.
type Sweeper struct {
	db       *pgxpool.Pool
	lease    time.Duration
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(db *pgxpool.Pool, lease, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		db:       db,
		lease:    lease,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().Dur("lease", s.lease).Dur("interval", s.interval).
		Msg("pending-payment sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("pending-payment sweeper stopped")
			return
		case <-ticker.C:
			reclaimed, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("sweep pass failed")
				continue
			}
			if reclaimed > 0 {
				s.logger.Info().Int("reclaimed", reclaimed).Msg("reclaimed abandoned reservations")
			}
		}
	}
}

// SweepOnce cancels expired pending_payment appointments and releases their
// slots in a single transaction.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txApptRepo := repository.NewAppointmentRepository(tx)
	txSlotRepo := repository.NewSlotRepository(tx)

	cutoff := nowFn().UTC().Add(-s.lease)
	expired, err := txApptRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, appt := range expired {
		if _, err := txApptRepo.UpdateStatusIfCurrent(ctx, appt.ID,
			models.AppointmentPendingPayment, models.AppointmentCancelled); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return 0, err
		}
		if _, err := txSlotRepo.Release(ctx, appt.CoachID, appt.Date); err != nil {
			return 0, err
		}
		reclaimed++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	metrics.AddPendingReclaimed(float64(reclaimed))
	return reclaimed, nil
}
