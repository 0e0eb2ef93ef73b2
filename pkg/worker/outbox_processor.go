package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     100,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    200 * time.Millisecond,
	}
}

// OutboxProcessor publishes pending outbox events to the broker. A batch is
// claimed inside a transaction so concurrent workers never publish the same
// event twice.
type OutboxProcessor struct {
	tx      repository.Transactor
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	tx repository.Transactor,
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	m *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		return nil, fmt.Errorf("retry attempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		return nil, fmt.Errorf("retry delay must be greater than 0")
	}

	return &OutboxProcessor{
		tx:      tx,
		repo:    repo,
		broker:  broker,
		config:  config,
		metrics: m,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	log.Info().Dur("poll_interval", p.config.PollInterval).Msg("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to process events")
			}
		}
	}
}

// ProcessBatch publishes one batch and returns how many events were
// published successfully.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	if p.metrics != nil {
		timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
		defer timer.ObserveDuration()
	}

	published := 0
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		for _, event := range events {
			if err := p.processEvent(ctx, event); err != nil {
				log.Error().Err(err).
					Str("event_id", event.ID.String()).
					Str("event_type", event.EventType).
					Msg("Failed to publish event")
				continue
			}
			published++
		}
		return nil
	})
	return published, err
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg, err := json.Marshal(messaging.Message{
		ID:          event.ID.String(),
		Type:        event.EventType,
		AggregateID: event.AggregateID.String(),
		OccurredAt:  event.CreatedAt.UTC().Format(time.RFC3339),
		Payload:     event.Payload,
	})
	if err != nil {
		return p.fail(ctx, event, fmt.Errorf("failed to marshal message: %w", err))
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.config.RetryDelay
	retries := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.config.RetryAttempts-1)), ctx)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if attempt > 1 && p.metrics != nil {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		return p.broker.Publish(ctx, event.EventType, msg)
	}, retries)
	if err != nil {
		return p.fail(ctx, event, err)
	}

	if p.metrics != nil {
		p.metrics.OutboxEventsProcessed.Inc()
	}
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (p *OutboxProcessor) fail(ctx context.Context, event *model.OutboxEvent, cause error) error {
	if p.metrics != nil {
		p.metrics.OutboxEventsFailed.Inc()
	}
	msg := cause.Error()
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &msg); err != nil {
		log.Error().Err(err).Str("event_id", event.ID.String()).Msg("Failed to update event status")
	}
	return cause
}
