package events

import (
	"context"
	"time"

	"payments-service/internal/models"
	"payments-service/internal/store"

	"go.uber.org/zap"
)

// Dispatcher drains the outbox: it polls for PENDING messages, publishes
// them, and advances their status. A message that keeps failing past the
// attempt bound is marked FAILED and left for operator inspection.
type Dispatcher struct {
	store       store.Store
	publisher   Publisher
	interval    time.Duration
	batchSize   int
	maxAttempts int
	stopChan    chan struct{}
	doneChan    chan struct{}
}

func NewDispatcher(st store.Store, publisher Publisher, cfg models.EventsConfig) *Dispatcher {
	return &Dispatcher{
		store:       st,
		publisher:   publisher,
		interval:    cfg.PollInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxPublishAttempts,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	zap.L().Info("Starting outbox dispatcher",
		zap.Duration("poll_interval", d.interval),
		zap.Int("batch_size", d.batchSize))
	go d.pollLoop(ctx)
}

// Stop gracefully stops the dispatcher.
func (d *Dispatcher) Stop() {
	zap.L().Info("Stopping outbox dispatcher")
	close(d.stopChan)
	<-d.doneChan
	zap.L().Info("Outbox dispatcher stopped")
}

func (d *Dispatcher) pollLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.processPending(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) processPending(ctx context.Context) {
	messages, err := d.store.PendingOutbox(ctx, d.batchSize)
	if err != nil {
		zap.L().Error("Failed to load pending outbox messages", zap.Error(err))
		return
	}

	for _, msg := range messages {
		d.deliver(ctx, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg models.OutboxMessage) {
	err := d.publisher.Publish(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := d.store.MarkOutboxSent(ctx, msg.Id); err != nil {
			zap.L().Error("Failed to mark outbox message as sent",
				zap.Int64("message_id", msg.Id), zap.Error(err))
		}
		return
	}

	zap.L().Warn("Failed to publish outbox message",
		zap.Int64("message_id", msg.Id),
		zap.String("topic", msg.Topic),
		zap.Int("retry_count", msg.RetryCount),
		zap.Error(err))

	if err := d.store.IncrementOutboxRetry(ctx, msg.Id); err != nil {
		zap.L().Error("Failed to increment outbox retry count",
			zap.Int64("message_id", msg.Id), zap.Error(err))
		return
	}

	if msg.RetryCount+1 >= d.maxAttempts {
		if err := d.store.MarkOutboxFailed(ctx, msg.Id); err != nil {
			zap.L().Error("Failed to mark outbox message as failed",
				zap.Int64("message_id", msg.Id), zap.Error(err))
			return
		}
		zap.L().Error("Outbox message exceeded publish attempts, marked as failed",
			zap.Int64("message_id", msg.Id),
			zap.Int("attempts", msg.RetryCount+1))
	}
}
