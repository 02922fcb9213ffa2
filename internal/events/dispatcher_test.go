package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"payments-service/internal/models"
	"payments-service/internal/store"
)

// fakePublisher records published messages and can be told to fail.
type fakePublisher struct {
	mu        sync.Mutex
	published []string
	fail      bool
}

func (f *fakePublisher) Publish(topic, key, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakePublisher) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func setupDispatcher(t *testing.T, publisher Publisher, maxAttempts int) (*Dispatcher, *store.Memory) {
	t.Helper()

	memory := store.NewMemory()
	dispatcher := NewDispatcher(memory, publisher, models.EventsConfig{
		Topic:              "payment-events",
		PollInterval:       10 * time.Millisecond,
		BatchSize:          10,
		MaxPublishAttempts: maxAttempts,
	})
	return dispatcher, memory
}

func enqueue(t *testing.T, memory *store.Memory, payload string) {
	t.Helper()

	err := memory.EnqueueOutbox(context.Background(), models.OutboxMessage{
		MessageKey: "acc1",
		Topic:      "payment-events",
		Payload:    payload,
	})
	if err != nil {
		t.Fatalf("EnqueueOutbox failed: %v", err)
	}
}

func TestProcessPending_PublishesAndMarksSent(t *testing.T) {
	publisher := &fakePublisher{}
	dispatcher, memory := setupDispatcher(t, publisher, 5)
	ctx := context.Background()

	enqueue(t, memory, `{"eventType":"PAYMENT_SUCCESS"}`)
	enqueue(t, memory, `{"eventType":"PAYMENT_FAILED"}`)

	dispatcher.processPending(ctx)

	if publisher.publishedCount() != 2 {
		t.Fatalf("Expected 2 published messages, got %d", publisher.publishedCount())
	}

	pending, err := memory.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected empty outbox after delivery, got %d pending", len(pending))
	}
}

func TestProcessPending_RetriesOnFailure(t *testing.T) {
	publisher := &fakePublisher{fail: true}
	dispatcher, memory := setupDispatcher(t, publisher, 5)
	ctx := context.Background()

	enqueue(t, memory, "{}")

	dispatcher.processPending(ctx)

	pending, err := memory.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected message still pending, got %d", len(pending))
	}
	if pending[0].RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", pending[0].RetryCount)
	}

	// The broker recovers; the next pass delivers.
	publisher.setFail(false)
	dispatcher.processPending(ctx)

	pending, err = memory.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected empty outbox after recovery, got %d pending", len(pending))
	}
}

func TestProcessPending_MarksFailedAfterMaxAttempts(t *testing.T) {
	publisher := &fakePublisher{fail: true}
	dispatcher, memory := setupDispatcher(t, publisher, 2)
	ctx := context.Background()

	enqueue(t, memory, "{}")

	dispatcher.processPending(ctx)
	dispatcher.processPending(ctx)

	pending, err := memory.PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected message marked FAILED, got %d pending", len(pending))
	}
	if publisher.publishedCount() != 0 {
		t.Errorf("Expected no successful publishes, got %d", publisher.publishedCount())
	}
}

func TestDispatcher_StartStop(t *testing.T) {
	publisher := &fakePublisher{}
	dispatcher, memory := setupDispatcher(t, publisher, 5)

	enqueue(t, memory, "{}")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher.Start(ctx)

	deadline := time.After(time.Second)
	for publisher.publishedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("Dispatcher did not deliver within deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	dispatcher.Stop()
}
