package store

import (
	"context"
	"errors"
	"time"

	"payments-service/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountExists          = errors.New("account already exists")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// Store defines the persistence contract that every backend (SQLite,
// in-memory, ...) must satisfy. The balance mutation protocol relies on
// SaveAccountWithVersionCheck rejecting stale writes; everything else is
// plain point lookups and appends.
type Store interface {
	// --- Accounts ---
	FindAccountByUser(ctx context.Context, userId string) (*models.Account, error)
	AccountExistsForUser(ctx context.Context, userId string) (bool, error)
	InsertAccount(ctx context.Context, account *models.Account) (*models.Account, error)
	// SaveAccountWithVersionCheck writes balance and advances the version
	// only if the stored version still equals account.Version; otherwise it
	// returns ErrConcurrentModification and applies nothing.
	SaveAccountWithVersionCheck(ctx context.Context, account *models.Account) (*models.Account, error)

	// --- Ledger (append-only) ---
	AppendTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error)
	TransactionsSince(ctx context.Context, accountId string, from time.Time) ([]models.Transaction, error)

	// --- Outbox ---
	EnqueueOutbox(ctx context.Context, msg models.OutboxMessage) error
	PendingOutbox(ctx context.Context, limit int) ([]models.OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, id int64) error
	MarkOutboxFailed(ctx context.Context, id int64) error
	IncrementOutboxRetry(ctx context.Context, id int64) error

	// --- Lifecycle ---
	Close()
}
