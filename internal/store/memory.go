package store

import (
	"context"
	"sync"
	"time"

	"payments-service/internal/models"
)

// Compile-time check: *Memory must satisfy Store.
var _ Store = (*Memory)(nil)

// Memory is an in-memory Store implementation (for testing/dev). It honors
// the same contracts as the SQLite backend, including the version check on
// account writes, so the mutation protocol can be exercised without a
// database.
type Memory struct {
	mu           sync.RWMutex
	accounts     map[string]models.Account // keyed by account id
	byUser       map[string]string         // user id -> account id
	transactions []models.Transaction
	outbox       []models.OutboxMessage
	nextOutboxId int64
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]models.Account),
		byUser:       make(map[string]string),
		nextOutboxId: 1,
	}
}

func (m *Memory) FindAccountByUser(_ context.Context, userId string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUser[userId]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := m.accounts[id]
	return &account, nil
}

func (m *Memory) AccountExistsForUser(_ context.Context, userId string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byUser[userId]
	return ok, nil
}

func (m *Memory) InsertAccount(_ context.Context, account *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byUser[account.UserId]; ok {
		return nil, ErrAccountExists
	}

	now := time.Now().UTC()
	stored := *account
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.accounts[stored.Id] = stored
	m.byUser[stored.UserId] = stored.Id

	result := stored
	return &result, nil
}

func (m *Memory) SaveAccountWithVersionCheck(_ context.Context, account *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.accounts[account.Id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if current.Version != account.Version {
		return nil, ErrConcurrentModification
	}

	stored := *account
	stored.Version = current.Version + 1
	stored.UpdatedAt = time.Now().UTC()
	m.accounts[stored.Id] = stored

	result := stored
	return &result, nil
}

func (m *Memory) AppendTransaction(_ context.Context, tx models.Transaction) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	m.transactions = append(m.transactions, tx)

	result := tx
	return &result, nil
}

func (m *Memory) TransactionsSince(_ context.Context, accountId string, from time.Time) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Transaction
	for _, tx := range m.transactions {
		if tx.AccountId == accountId && !tx.CreatedAt.Before(from) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (m *Memory) EnqueueOutbox(_ context.Context, msg models.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	msg.Id = m.nextOutboxId
	m.nextOutboxId++
	msg.Status = models.OutboxStatusPending
	msg.CreatedAt = now
	msg.UpdatedAt = now
	m.outbox = append(m.outbox, msg)
	return nil
}

func (m *Memory) PendingOutbox(_ context.Context, limit int) ([]models.OutboxMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.OutboxMessage
	for _, msg := range m.outbox {
		if msg.Status != models.OutboxStatusPending {
			continue
		}
		result = append(result, msg)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *Memory) MarkOutboxSent(_ context.Context, id int64) error {
	return m.setOutboxStatus(id, models.OutboxStatusSent)
}

func (m *Memory) MarkOutboxFailed(_ context.Context, id int64) error {
	return m.setOutboxStatus(id, models.OutboxStatusFailed)
}

func (m *Memory) IncrementOutboxRetry(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.outbox {
		if m.outbox[i].Id == id {
			m.outbox[i].RetryCount++
			m.outbox[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (m *Memory) setOutboxStatus(id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.outbox {
		if m.outbox[i].Id == id {
			m.outbox[i].Status = status
			m.outbox[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (m *Memory) Close() {}
