package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	"github.com/mpetrakis/repair-api/pkg/logger"
	"github.com/mpetrakis/repair-api/pkg/messaging"
	"github.com/mpetrakis/repair-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// Processed rows older than RetentionPeriod are purged on each poll.
	RetentionPeriod time.Duration
}

// OutboxProcessor drains pending outbox events to the message broker.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
			p.cleanup(ctx)
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
			continue
		}
	}

	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := retry(p.config.RetryAttempts, p.config.RetryDelay, func() error {
		return p.broker.Publish(ctx, event.EventType, event.Payload)
	})

	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		errStr := err.Error()
		retryAt := time.Now().Add(p.config.RetryDelay * time.Duration(p.config.RetryAttempts))
		if updateErr := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errStr, &retryAt); updateErr != nil {
			return fmt.Errorf("failed to mark event failed: %w", updateErr)
		}
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	p.metrics.OutboxEventsProcessed.Inc()
	return nil
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	if p.config.RetentionPeriod <= 0 {
		return
	}

	cutoff := time.Now().Add(-p.config.RetentionPeriod)
	deleted, err := p.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error(err, "Failed to purge processed events")
		return
	}
	if deleted > 0 {
		p.logger.Debug("Purged processed events", "count", deleted)
	}
}

func retry(attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * delay)
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
