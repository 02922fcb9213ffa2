package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types recorded in the ledger.
const (
	TransactionDeposit    = "DEPOSIT"
	TransactionWithdrawal = "WITHDRAWAL"
)

// Account represents current balance state (hot data). Balance is an exact
// decimal; Version is the optimistic-lock marker advanced on every
// successful balance write.
type Account struct {
	Id        string          `db:"id"`
	UserId    string          `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	Version   int64           `db:"version"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Transaction represents an immutable ledger entry (cold data). Amount is the
// unsigned magnitude of the change; direction is implied by TransactionType.
type Transaction struct {
	Id              string          `db:"id"`
	AccountId       string          `db:"account_id"`
	TransactionType string          `db:"transaction_type"`
	Amount          decimal.Decimal `db:"amount"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Outbox message lifecycle states.
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage is a pending broker publication recorded next to the business
// write and delivered asynchronously by the events dispatcher.
type OutboxMessage struct {
	Id         int64     `db:"id"`
	MessageKey string    `db:"message_key"`
	Topic      string    `db:"topic"`
	Payload    string    `db:"payload"`
	Status     string    `db:"status"`
	RetryCount int       `db:"retry_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
