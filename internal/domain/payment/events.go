package payment

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventType_PaymentCreated  EventType = "payment_created"
	EventType_PaymentVerified EventType = "payment_verified"
)

type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	PaymentID  string    `json:"paymentId"`
	TxnID      string    `json:"txnId"`
	Email      string    `json:"email"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(t EventType, p *Payment) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       t,
		PaymentID:  p.ID,
		TxnID:      p.TxnID,
		Email:      p.Email,
		Status:     p.Status,
		OccurredAt: time.Now().UTC(),
	}
}
