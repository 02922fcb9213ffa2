package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payments-service/internal/models"
	"payments-service/internal/store"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FindAccountByUser returns the account owned by userId, or
// store.ErrAccountNotFound.
func (s *Service) FindAccountByUser(ctx context.Context, userId string) (*models.Account, error) {
	account, err := s.scanAccount(s.db.QueryRowContext(ctx, queryGetAccountByUser, userId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account for user %s: %w", userId, err)
	}
	return account, nil
}

func (s *Service) AccountExistsForUser(ctx context.Context, userId string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, queryAccountExistsForUser, userId).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence for user %s: %w", userId, err)
	}
	return exists, nil
}

// InsertAccount persists a new account. The UNIQUE constraint on user_id is the
// source of truth for one-account-per-owner; a violation surfaces as
// store.ErrAccountExists.
func (s *Service) InsertAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, queryInsertAccount,
		account.Id, account.UserId, account.Balance.String(), account.Version, now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("account for user %s: %w", account.UserId, store.ErrAccountExists)
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	created := *account
	created.CreatedAt = now
	created.UpdatedAt = now

	zap.L().Info("Account created",
		zap.String("account_id", created.Id),
		zap.String("user_id", created.UserId))
	return &created, nil
}

// SaveAccountWithVersionCheck writes the new balance only if the stored
// version still matches account.Version (optimistic locking). A lost race
// surfaces as store.ErrConcurrentModification with no change applied.
func (s *Service) SaveAccountWithVersionCheck(ctx context.Context, account *models.Account) (*models.Account, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, queryUpdateAccountBalance,
		account.Balance.String(), now, account.Id, account.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Accounts are never deleted, so a zero-row update means the version
		// marker moved underneath us.
		return nil, fmt.Errorf("balance update for account %s - %w", account.Id, store.ErrConcurrentModification)
	}

	updated := *account
	updated.Version = account.Version + 1
	updated.UpdatedAt = now
	return &updated, nil
}

func (s *Service) scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	var balanceStr string
	if err := row.Scan(&account.Id, &account.UserId, &balanceStr,
		&account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	account.Balance = balance
	return &account, nil
}
