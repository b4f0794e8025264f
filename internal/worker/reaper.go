package worker

import (
	"context"
	"time"

	"dineease/config"
	"dineease/infras/otel"
	"dineease/internal/domains/reservation/repository"
	"dineease/shared/constant"
	"dineease/shared/timezone"

	"github.com/rs/zerolog/log"
)

const reaperActor = "reaper"

// Reaper fails reservations stuck in awaiting_confirmation past the payment
// order window, so an abandoned or lost callback never holds a slot forever.
type Reaper struct {
	repo repository.Reservation
	cfg  *config.Config
	otel otel.Otel
}

func NewReaper(repo repository.Reservation, cfg *config.Config, otl otel.Otel) *Reaper {
	return &Reaper{
		repo: repo,
		cfg:  cfg,
		otel: otl,
	}
}

// Run ticks until the context is cancelled. It is meant to be started as a
// single goroutine from main.
func (r *Reaper) Run(ctx context.Context) {
	if !r.cfg.Reaper.Enable {
		log.Info().Msg("Reservation reaper is disabled")

		return
	}

	interval := time.Duration(r.cfg.Reaper.IntervalSeconds) * time.Second

	log.Info().
		Dur("interval", interval).
		Int("orderWindowMinutes", r.cfg.Payment.OrderWindowMin).
		Msg("Reservation reaper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Reservation reaper stopped")

			return
		case <-ticker.C:
			if _, err := r.ReapOnce(ctx); err != nil {
				log.Error().Err(err).Msg("failed to reap stale reservations")
			}
		}
	}
}

// ReapOnce fails every reservation awaiting confirmation since before the
// configured order window and returns how many were failed.
func (r *Reaper) ReapOnce(ctx context.Context) (count int64, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".reaper.ReapOnce")
	defer scope.End()
	defer scope.TraceIfError(err)

	cutoff := timezone.Now().Add(-time.Duration(r.cfg.Payment.OrderWindowMin) * time.Minute)

	count, err = r.repo.FailStale(ctx, cutoff, reaperActor)
	if err != nil {
		return 0, err // nolint:wrapcheck
	}

	if count > 0 {
		log.Info().Int64("count", count).Msg("Failed stale reservations past the payment window")
	}

	return count, nil
}
