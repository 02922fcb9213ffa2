package database

import (
	"context"
	"fmt"
	"time"

	"payments-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AppendTransaction records an immutable ledger entry. There is no update or
// delete path for the transactions table.
func (s *Service) AppendTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, queryInsertTransaction,
		tx.Id, tx.AccountId, tx.TransactionType, tx.Amount.String(), tx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	zap.L().Info("Ledger entry appended",
		zap.String("transaction_id", tx.Id),
		zap.String("account_id", tx.AccountId),
		zap.String("type", tx.TransactionType),
		zap.String("amount", tx.Amount.String()))

	result := tx
	return &result, nil
}

// TransactionsSince returns all ledger entries for accountId created at or
// after from, in creation order.
func (s *Service) TransactionsSince(ctx context.Context, accountId string, from time.Time) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransactionsSince, accountId, from.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var amountStr string
		if err := rows.Scan(&tx.Id, &tx.AccountId, &tx.TransactionType, &amountStr, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		tx.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}

		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}
