package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/repository"
)

// Expirer flips lapsed subscriptions to EXPIRED.
type Expirer interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

type HousekeepingConfig struct {
	ExpirySweepSpec   string
	OutboxCleanupSpec string
	OutboxRetention   time.Duration
}

// Housekeeper runs periodic maintenance jobs on a cron schedule.
type Housekeeper struct {
	cron    *cron.Cron
	expirer Expirer
	outbox  repository.OutboxRepository
	config  HousekeepingConfig
	now     func() time.Time
}

func NewHousekeeper(expirer Expirer, outbox repository.OutboxRepository, config HousekeepingConfig) (*Housekeeper, error) {
	h := &Housekeeper{
		cron:    cron.New(),
		expirer: expirer,
		outbox:  outbox,
		config:  config,
		now:     time.Now,
	}

	if _, err := h.cron.AddFunc(config.ExpirySweepSpec, func() { h.SweepExpired(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid expiry sweep schedule %q: %w", config.ExpirySweepSpec, err)
	}
	if config.OutboxRetention > 0 {
		if _, err := h.cron.AddFunc(config.OutboxCleanupSpec, func() { h.CleanOutbox(context.Background()) }); err != nil {
			return nil, fmt.Errorf("invalid outbox cleanup schedule %q: %w", config.OutboxCleanupSpec, err)
		}
	}
	return h, nil
}

// Start runs the scheduler until ctx is cancelled, then waits for running
// jobs to finish.
func (h *Housekeeper) Start(ctx context.Context) {
	h.cron.Start()
	log.Info().
		Str("expiry_sweep", h.config.ExpirySweepSpec).
		Str("outbox_cleanup", h.config.OutboxCleanupSpec).
		Msg("Housekeeping scheduler started")

	<-ctx.Done()
	<-h.cron.Stop().Done()
	log.Info().Msg("Housekeeping scheduler stopped")
}

func (h *Housekeeper) SweepExpired(ctx context.Context) {
	if _, err := h.expirer.ExpireLapsed(ctx); err != nil {
		log.Error().Err(err).Msg("Expiry sweep failed")
	}
}

func (h *Housekeeper) CleanOutbox(ctx context.Context) {
	cutoff := h.now().Add(-h.config.OutboxRetention)
	n, err := h.outbox.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Outbox cleanup failed")
		return
	}
	if n > 0 {
		log.Info().Int64("count", n).Time("before", cutoff).Msg("Deleted processed outbox events")
	}
}
