package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payments-service/internal/models"
	"payments-service/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Business-rule errors surfaced by the payments core. Store-level errors
// (ErrAccountNotFound, ErrAccountExists) pass through unchanged.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrConflictExhausted = errors.New("balance update retries exhausted")
)

// Service implements the account operations: creation, the optimistic-lock
// mutation protocol for deposits and withdrawals, and the read-only queries.
type Service struct {
	store       store.Store
	maxAttempts int
	retryDelay  time.Duration
	eventTopic  string
}

func NewService(st store.Store, retry models.RetryConfig, eventTopic string) *Service {
	maxAttempts := retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Service{
		store:       st,
		maxAttempts: maxAttempts,
		retryDelay:  retry.Delay,
		eventTopic:  eventTopic,
	}
}

// CreateAccount creates a zero-balance account for userId. Each user owns at
// most one account; a second creation fails with store.ErrAccountExists.
// Account creation writes no ledger entry.
func (s *Service) CreateAccount(ctx context.Context, userId string) (*models.Account, error) {
	exists, err := s.store.AccountExistsForUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("account for user %s: %w", userId, store.ErrAccountExists)
	}

	account := &models.Account{
		Id:      uuid.New().String(),
		UserId:  userId,
		Balance: decimal.Zero,
		Version: 1,
	}

	// The store's uniqueness check still applies; a creation race loses here.
	return s.store.InsertAccount(ctx, account)
}

// Deposit adds amount to the user's balance and appends a DEPOSIT ledger
// entry. Concurrent mutations of the same account are resolved by the
// versioned-save retry loop.
func (s *Service) Deposit(ctx context.Context, userId string, amount decimal.Decimal) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit of %s: %w", amount.String(), ErrInvalidAmount)
	}
	return s.mutateBalance(ctx, userId, models.TransactionDeposit, amount)
}

// Withdraw subtracts amount from the user's balance and appends a WITHDRAWAL
// ledger entry. A withdrawal past the zero floor fails with
// ErrInsufficientFunds and changes nothing.
func (s *Service) Withdraw(ctx context.Context, userId string, amount decimal.Decimal) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal of %s: %w", amount.String(), ErrInvalidAmount)
	}
	return s.mutateBalance(ctx, userId, models.TransactionWithdrawal, amount)
}

// GetBalance returns the user's current balance.
func (s *Service) GetBalance(ctx context.Context, userId string) (decimal.Decimal, error) {
	account, err := s.store.FindAccountByUser(ctx, userId)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetTransactionHistory returns the user's ledger entries created within the
// last `days` days, in creation order. days must be non-negative; days == 0
// returns only entries created at or after the moment of the call.
func (s *Service) GetTransactionHistory(ctx context.Context, userId string, days int) ([]models.Transaction, error) {
	if days < 0 {
		return nil, fmt.Errorf("history window must be non-negative, got %d", days)
	}

	account, err := s.store.FindAccountByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	from := time.Now().UTC().AddDate(0, 0, -days)
	return s.store.TransactionsSince(ctx, account.Id, from)
}

// mutateBalance runs the read-compute-save cycle for one deposit or
// withdrawal, retrying the whole cycle on version conflicts up to the
// configured bound with a fixed delay between attempts. Only after the
// versioned save commits is the ledger entry appended and the payment event
// enqueued.
func (s *Service) mutateBalance(ctx context.Context, userId, txType string, amount decimal.Decimal) (*models.Account, error) {
	var updated *models.Account

	for attempt := 1; ; attempt++ {
		account, err := s.store.FindAccountByUser(ctx, userId)
		if err != nil {
			return nil, err
		}

		if txType == models.TransactionWithdrawal && account.Balance.LessThan(amount) {
			s.recordEvent(ctx, account, txType, amount, models.EventPaymentFailed)
			return nil, fmt.Errorf("withdraw %s from balance %s: %w",
				amount.String(), account.Balance.String(), ErrInsufficientFunds)
		}

		if txType == models.TransactionWithdrawal {
			account.Balance = account.Balance.Sub(amount)
		} else {
			account.Balance = account.Balance.Add(amount)
		}

		updated, err = s.store.SaveAccountWithVersionCheck(ctx, account)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConcurrentModification) {
			return nil, err
		}
		if attempt >= s.maxAttempts {
			return nil, fmt.Errorf("%s for user %s after %d attempts: %w",
				txType, userId, attempt, ErrConflictExhausted)
		}

		zap.L().Warn("Version conflict on balance write, retrying",
			zap.String("user_id", userId),
			zap.String("type", txType),
			zap.Int("attempt", attempt),
			zap.Duration("delay", s.retryDelay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	// The balance write is durable from here on; a failed append leaves the
	// ledger behind the balance, so the failure is surfaced rather than
	// swallowed.
	entry := models.Transaction{
		Id:              uuid.New().String(),
		AccountId:       updated.Id,
		TransactionType: txType,
		Amount:          amount,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := s.store.AppendTransaction(ctx, entry); err != nil {
		zap.L().Error("Balance committed but ledger append failed",
			zap.String("account_id", updated.Id),
			zap.String("type", txType),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return nil, fmt.Errorf("ledger append after balance commit: %w", err)
	}

	s.recordEvent(ctx, updated, txType, amount, models.EventPaymentSuccess)

	zap.L().Info("Balance mutation applied",
		zap.String("account_id", updated.Id),
		zap.String("user_id", userId),
		zap.String("type", txType),
		zap.String("amount", amount.String()),
		zap.String("balance", updated.Balance.String()),
		zap.Int64("version", updated.Version))

	return updated, nil
}

// recordEvent enqueues a payment outcome event for asynchronous delivery.
// Event delivery is best effort and never fails the business operation.
func (s *Service) recordEvent(ctx context.Context, account *models.Account, txType string, amount decimal.Decimal, eventType string) {
	event := models.PaymentEvent{
		AccountId:       account.Id,
		UserId:          account.UserId,
		Amount:          amount,
		TransactionType: txType,
		EventType:       eventType,
		OccurredAt:      time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("Failed to marshal payment event", zap.Error(err))
		return
	}

	msg := models.OutboxMessage{
		MessageKey: account.Id,
		Topic:      s.eventTopic,
		Payload:    string(payload),
	}
	if err := s.store.EnqueueOutbox(ctx, msg); err != nil {
		zap.L().Error("Failed to enqueue payment event",
			zap.String("account_id", account.Id),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
