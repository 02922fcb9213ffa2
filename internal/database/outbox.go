package database

import (
	"context"
	"fmt"
	"time"

	"payments-service/internal/models"

	"go.uber.org/zap"
)

// EnqueueOutbox records a pending event publication for the dispatcher.
func (s *Service) EnqueueOutbox(ctx context.Context, msg models.OutboxMessage) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, queryInsertOutboxMessage,
		msg.MessageKey, msg.Topic, msg.Payload, models.OutboxStatusPending, now, now)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox message: %w", err)
	}
	return nil
}

// PendingOutbox returns up to limit undelivered messages, oldest first.
func (s *Service) PendingOutbox(ctx context.Context, limit int) ([]models.OutboxMessage, error) {
	rows, err := s.db.QueryContext(ctx, queryGetPendingOutboxMessages, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var messages []models.OutboxMessage
	for rows.Next() {
		var msg models.OutboxMessage
		if err := rows.Scan(&msg.Id, &msg.MessageKey, &msg.Topic, &msg.Payload,
			&msg.Status, &msg.RetryCount, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return messages, nil
}

func (s *Service) MarkOutboxSent(ctx context.Context, id int64) error {
	return s.setOutboxStatus(ctx, id, models.OutboxStatusSent)
}

func (s *Service) MarkOutboxFailed(ctx context.Context, id int64) error {
	return s.setOutboxStatus(ctx, id, models.OutboxStatusFailed)
}

func (s *Service) IncrementOutboxRetry(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, queryIncrementOutboxRetry, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to increment outbox retry count: %w", err)
	}
	return nil
}

func (s *Service) setOutboxStatus(ctx context.Context, id int64, status string) error {
	if _, err := s.db.ExecContext(ctx, queryUpdateOutboxStatus, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update outbox message %d: %w", id, err)
	}
	return nil
}
