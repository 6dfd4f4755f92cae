package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"idealab-be/internal/config"
	"idealab-be/internal/entity"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/repository/unitofwork"
	"idealab-be/pkg/events"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

const relayModule = "OUTBOX"

// OutboxRelay moves committed outbox rows onto the event bus. A row is marked
// published only after the bus accepted it, so delivery is at least once; the
// outbox id doubles as the bus message id for deduplication.
type OutboxRelay struct {
	uowFactory  unitofwork.RepositoryFactory
	publisher   events.Publisher
	logger      logger.ILogger
	interval    time.Duration
	batchSize   int
	maxAttempts int

	breaker circuitbreaker.CircuitBreaker[struct{}]
	retrier retry.Retry[struct{}]

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewOutboxRelay(uowFactory unitofwork.RepositoryFactory, publisher events.Publisher, cfg config.WorkflowConfig, log logger.ILogger) *OutboxRelay {
	interval := cfg.OutboxPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	batch := cfg.OutboxBatchSize
	if batch <= 0 {
		batch = 50
	}
	attempts := cfg.PublishRetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	maxAttempts := cfg.OutboxMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &OutboxRelay{
		uowFactory:  uowFactory,
		publisher:   publisher,
		logger:      log,
		interval:    interval,
		batchSize:   batch,
		maxAttempts: maxAttempts,
		breaker: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  200 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start polls until ctx is cancelled or Stop is called.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.started = true
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			if _, err := r.RelayOnce(ctx); err != nil {
				r.logger.Error(relayModule, "Outbox relay pass failed", map[string]interface{}{"error": err})
			}
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
			}
		}
	}()
	r.logger.Info(relayModule, "Outbox relay started", map[string]interface{}{
		"interval":  r.interval.String(),
		"batchSize": r.batchSize,
	})
}

func (r *OutboxRelay) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	if r.started {
		<-r.done
	}
}

// RelayOnce publishes one batch and returns how many rows were published. The
// first publish failure ends the batch; the remaining rows wait for the next pass.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer uow.Rollback()

	pending, err := uow.OutboxRepository().ClaimPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to claim outbox rows: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := 0
	for _, row := range pending {
		if pubErr := r.publish(ctx, row); pubErr != nil {
			giveUp := row.Attempts+1 >= r.maxAttempts
			if err := uow.OutboxRepository().MarkAttemptFailed(ctx, row.Id, pubErr.Error(), giveUp); err != nil {
				return published, fmt.Errorf("failed to record publish failure: %w", err)
			}
			level := r.logger.Warn
			if giveUp {
				level = r.logger.Error
			}
			level(relayModule, "Failed to publish outbox event", map[string]interface{}{
				"outboxId":  row.Id.String(),
				"eventType": row.EventType,
				"attempts":  row.Attempts + 1,
				"giveUp":    giveUp,
				"error":     pubErr,
			})
			break
		}

		if err := uow.OutboxRepository().MarkPublished(ctx, row.Id, time.Now()); err != nil {
			return published, fmt.Errorf("failed to mark outbox row published: %w", err)
		}
		published++
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit outbox batch: %w", err)
	}

	if published > 0 {
		r.logger.Debug(relayModule, "Outbox batch published", map[string]interface{}{
			"published": published,
			"claimed":   len(pending),
		})
	}
	return published, nil
}

func (r *OutboxRelay) publish(ctx context.Context, row *entity.OutboxEvent) error {
	evt := events.BaseEvent{
		Type:       row.EventType,
		Data:       row.Payload,
		OccurredAt: row.CreatedAt,
	}
	_, err := r.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return r.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.publisher.Publish(ctx, row.Id.String(), evt)
		})
	})
	return err
}
