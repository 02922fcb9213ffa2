package database

import (
	"context"
	"testing"

	"payments-service/internal/models"
)

func TestEnqueueOutbox_AndPending(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for _, key := range []string{"acc1", "acc2"} {
		err := service.EnqueueOutbox(ctx, models.OutboxMessage{
			MessageKey: key,
			Topic:      "payment-events",
			Payload:    `{"eventType":"PAYMENT_SUCCESS"}`,
		})
		if err != nil {
			t.Fatalf("EnqueueOutbox failed: %v", err)
		}
	}

	pending, err := service.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}

	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending messages, got %d", len(pending))
	}
	if pending[0].MessageKey != "acc1" {
		t.Errorf("Expected oldest message first, got key %s", pending[0].MessageKey)
	}
	if pending[0].Status != models.OutboxStatusPending {
		t.Errorf("Expected PENDING status, got %s", pending[0].Status)
	}
	if pending[0].RetryCount != 0 {
		t.Errorf("Expected retry count 0, got %d", pending[0].RetryCount)
	}
}

func TestPendingOutbox_RespectsLimit(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := service.EnqueueOutbox(ctx, models.OutboxMessage{
			MessageKey: "acc1",
			Topic:      "payment-events",
			Payload:    "{}",
		}); err != nil {
			t.Fatalf("EnqueueOutbox failed: %v", err)
		}
	}

	pending, err := service.PendingOutbox(ctx, 3)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("Expected 3 messages, got %d", len(pending))
	}
}

func TestMarkOutboxSent_RemovesFromPending(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.EnqueueOutbox(ctx, models.OutboxMessage{
		MessageKey: "acc1",
		Topic:      "payment-events",
		Payload:    "{}",
	}); err != nil {
		t.Fatalf("EnqueueOutbox failed: %v", err)
	}

	pending, err := service.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending message, got %d", len(pending))
	}

	if err := service.MarkOutboxSent(ctx, pending[0].Id); err != nil {
		t.Fatalf("MarkOutboxSent failed: %v", err)
	}

	pending, err = service.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending messages after send, got %d", len(pending))
	}
}

func TestIncrementOutboxRetry_ThenFailed(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.EnqueueOutbox(ctx, models.OutboxMessage{
		MessageKey: "acc1",
		Topic:      "payment-events",
		Payload:    "{}",
	}); err != nil {
		t.Fatalf("EnqueueOutbox failed: %v", err)
	}

	pending, err := service.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	id := pending[0].Id

	if err := service.IncrementOutboxRetry(ctx, id); err != nil {
		t.Fatalf("IncrementOutboxRetry failed: %v", err)
	}

	pending, err = service.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if pending[0].RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", pending[0].RetryCount)
	}

	if err := service.MarkOutboxFailed(ctx, id); err != nil {
		t.Fatalf("MarkOutboxFailed failed: %v", err)
	}

	pending, err = service.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending messages after failure, got %d", len(pending))
	}
}
