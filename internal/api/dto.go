package api

import (
	"time"

	"payments-service/internal/models"
)

// AccountDTO represents an account in API responses. The balance is
// rendered as a decimal string so clients never lose precision to
// floating point.
type AccountDTO struct {
	Id        string    `json:"id"`
	UserId    string    `json:"userId"`
	Balance   string    `json:"balance"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TransactionDTO represents a ledger entry in API responses.
type TransactionDTO struct {
	Id              string    `json:"id"`
	AccountId       string    `json:"accountId"`
	TransactionType string    `json:"transactionType"`
	Amount          string    `json:"amount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BalanceDTO is the response body for the balance endpoint.
type BalanceDTO struct {
	UserId  string `json:"userId"`
	Balance string `json:"balance"`
}

// ErrorResponse is the body returned for any failed request. Code is a
// stable machine-readable identifier; Error is for humans.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toAccountDTO(account *models.Account) AccountDTO {
	return AccountDTO{
		Id:        account.Id,
		UserId:    account.UserId,
		Balance:   account.Balance.String(),
		Version:   account.Version,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

func toTransactionDTOs(transactions []models.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, transaction := range transactions {
		dtos = append(dtos, TransactionDTO{
			Id:              transaction.Id,
			AccountId:       transaction.AccountId,
			TransactionType: transaction.TransactionType,
			Amount:          transaction.Amount.String(),
			CreatedAt:       transaction.CreatedAt,
		})
	}
	return dtos
}
