package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"payments-service/internal/models"
	"payments-service/internal/store"
)

func setupTestDB(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func insertTestAccount(t *testing.T, service *Service, id, userId string, balance decimal.Decimal) *models.Account {
	t.Helper()

	account, err := service.InsertAccount(context.Background(), &models.Account{
		Id:      id,
		UserId:  userId,
		Balance: balance,
		Version: 1,
	})
	if err != nil {
		t.Fatalf("Failed to insert account: %v", err)
	}
	return account
}

func TestInsertAccount_AndFindByUser(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	insertTestAccount(t, service, "acc1", "user1", decimal.Zero)

	account, err := service.FindAccountByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("FindAccountByUser failed: %v", err)
	}

	if account.Id != "acc1" {
		t.Errorf("Expected account id acc1, got %s", account.Id)
	}
	if !account.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected balance 0, got %s", account.Balance.String())
	}
	if account.Version != 1 {
		t.Errorf("Expected version 1, got %d", account.Version)
	}
}

func TestFindAccountByUser_NotFound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.FindAccountByUser(context.Background(), "nobody")
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestInsertAccount_DuplicateUser(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	insertTestAccount(t, service, "acc1", "user1", decimal.Zero)

	_, err := service.InsertAccount(ctx, &models.Account{
		Id:      "acc2",
		UserId:  "user1",
		Balance: decimal.Zero,
		Version: 1,
	})
	if !errors.Is(err, store.ErrAccountExists) {
		t.Errorf("Expected ErrAccountExists, got %v", err)
	}
}

func TestAccountExistsForUser(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	exists, err := service.AccountExistsForUser(ctx, "user1")
	if err != nil {
		t.Fatalf("AccountExistsForUser failed: %v", err)
	}
	if exists {
		t.Error("Expected no account before insert")
	}

	insertTestAccount(t, service, "acc1", "user1", decimal.Zero)

	exists, err = service.AccountExistsForUser(ctx, "user1")
	if err != nil {
		t.Fatalf("AccountExistsForUser failed: %v", err)
	}
	if !exists {
		t.Error("Expected account to exist after insert")
	}
}

func TestSaveAccountWithVersionCheck_AdvancesVersion(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := insertTestAccount(t, service, "acc1", "user1", decimal.Zero)

	account.Balance = decimal.NewFromInt(100)
	updated, err := service.SaveAccountWithVersionCheck(ctx, account)
	if err != nil {
		t.Fatalf("SaveAccountWithVersionCheck failed: %v", err)
	}

	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}

	stored, err := service.FindAccountByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("FindAccountByUser failed: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance 100, got %s", stored.Balance.String())
	}
	if stored.Version != 2 {
		t.Errorf("Expected stored version 2, got %d", stored.Version)
	}
}

func TestSaveAccountWithVersionCheck_StaleVersion(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := insertTestAccount(t, service, "acc1", "user1", decimal.Zero)

	first := *account
	first.Balance = decimal.NewFromInt(10)
	if _, err := service.SaveAccountWithVersionCheck(ctx, &first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	stale := *account
	stale.Balance = decimal.NewFromInt(20)
	_, err := service.SaveAccountWithVersionCheck(ctx, &stale)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification, got %v", err)
	}

	stored, err := service.FindAccountByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("FindAccountByUser failed: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Stale write must not apply, balance is %s", stored.Balance.String())
	}
}
