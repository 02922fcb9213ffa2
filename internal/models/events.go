package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment event types published to other systems.
const (
	EventPaymentSuccess = "PAYMENT_SUCCESS"
	EventPaymentFailed  = "PAYMENT_FAILED"
)

// PaymentEvent notifies downstream systems of a payment outcome. Amount
// marshals as a quoted decimal string so no precision is lost on the wire.
type PaymentEvent struct {
	AccountId       string          `json:"accountId"`
	UserId          string          `json:"userId"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
	EventType       string          `json:"eventType"`
	OccurredAt      time.Time       `json:"occurredAt"`
}
