// Package events carries domain events out of the services after a commit.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TransactionCreated         = "transaction.created"
	TransactionUpdated         = "transaction.updated"
	TransactionPaid            = "transaction.paid"
	StockUpdated               = "stock.updated"
	CashierBookOpened          = "cashier_book.opened"
	CashierBookClosed          = "cashier_book.closed"
	PurchaseOrderStatusChanged = "purchase_order.status_changed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Actor         *Actor          `json:"actor,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Actor is the staff member whose request produced the event.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// New wraps payload. correlationID is the aggregate id and doubles as the
// Kafka partition key so one aggregate's events stay ordered.
func New(producer, eventType, correlationID string, actor *Actor, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Actor:         actor,
		Payload:       raw,
	}, nil
}

type TransactionPayload struct {
	TransactionID string     `json:"transaction_id"`
	Code          string     `json:"code"`
	CashierBookID string     `json:"cashier_book_id"`
	Status        string     `json:"status"`
	SubTotal      int64      `json:"sub_total"`
	DiscountTotal int64      `json:"discount_total"`
	Total         int64      `json:"total"`
	Pay           *int64     `json:"pay,omitempty"`
	Payment       *string    `json:"payment,omitempty"`
	PaidTime      *time.Time `json:"paid_time,omitempty"`
}

type StockChange struct {
	SKUID string `json:"sku_id"`
	SKU   string `json:"sku"`
	Delta int    `json:"delta"`
}

type StockPayload struct {
	Reason      string        `json:"reason"`
	ReferenceID string        `json:"reference_id"`
	Changes     []StockChange `json:"changes"`
}

type CashierBookPayload struct {
	CashierBookID string     `json:"cashier_book_id"`
	Code          string     `json:"code"`
	CashierID     string     `json:"cashier_id"`
	TimeOpen      time.Time  `json:"time_open"`
	TimeClosed    *time.Time `json:"time_closed,omitempty"`
}

type PurchaseOrderPayload struct {
	PurchaseOrderID string `json:"purchase_order_id"`
	Code            string `json:"code"`
	From            string `json:"from"`
	To              string `json:"to"`
}
